package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
)

func TestEventFor(t *testing.T) {
	link := uuid.New()
	alert := &models.Alert{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		FamilyMemberID: &link,
		AlertType:      models.AlertScamDetected,
		Severity:       models.SeverityHigh,
		Message:        "on behalf of",
		CreatedAt:      time.Now(),
	}

	raw, err := json.Marshal(EventFor(alert))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, alert.ID.String(), decoded["alert_id"])
	assert.Equal(t, link.String(), decoded["family_member_id"])
	assert.Equal(t, "high", decoded["severity"])
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c1f0e-2f5a-4c55-9a55-0b6a4d0f9a11")
	assert.Equal(t, "alerts:6f1c1f0e-2f5a-4c55-9a55-0b6a4d0f9a11", Channel(id))
}

func TestNewRedisClient_EmptyAddrDisables(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "", "")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestRedisPublisher_ReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	err := NewRedisPublisher(client).Publish(context.Background(), &models.Alert{ID: uuid.New(), UserID: uuid.New()})
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), &models.Alert{ID: uuid.New()}))
	assert.Len(t, r.Events(), 1)

	r.Err = errors.New("down")
	assert.Error(t, r.Publish(context.Background(), &models.Alert{}))
}
