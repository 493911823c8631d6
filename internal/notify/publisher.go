// Package notify pushes created alerts to subscribers outside the request,
// such as the mobile push gateway listening on Redis.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, alert *models.Alert) error
}

// Event is the wire shape published for every alert.
type Event struct {
	AlertID           uuid.UUID        `json:"alert_id"`
	UserID            uuid.UUID        `json:"user_id"`
	FamilyMemberID    *uuid.UUID       `json:"family_member_id,omitempty"`
	DetectionResultID uuid.UUID        `json:"detection_result_id"`
	AlertType         models.AlertType `json:"alert_type"`
	Severity          models.Severity  `json:"severity"`
	Message           string           `json:"message"`
	CreatedAt         time.Time        `json:"created_at"`
}

func EventFor(alert *models.Alert) Event {
	return Event{
		AlertID:           alert.ID,
		UserID:            alert.UserID,
		FamilyMemberID:    alert.FamilyMemberID,
		DetectionResultID: alert.DetectionResultID,
		AlertType:         alert.AlertType,
		Severity:          alert.Severity,
		Message:           alert.Message,
		CreatedAt:         alert.CreatedAt,
	}
}

// Channel is the per-recipient pub/sub channel.
func Channel(userID uuid.UUID) string {
	return "alerts:" + userID.String()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Alert) error { return nil }

// RedisPublisher publishes each alert as JSON on the recipient's channel.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// NewRedisClient dials addr and pings it. An empty addr disables Redis.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, alert *models.Alert) error {
	payload, err := json.Marshal(EventFor(alert))
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, Channel(alert.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
	return nil
}

// Recorder keeps published alerts in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, alert *models.Alert) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, EventFor(alert))
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
