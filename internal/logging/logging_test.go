package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSystemLogFrom_MapsKnownKeys(t *testing.T) {
	rec := slog.NewRecord(time.Now(), slog.LevelError, "scam detection failed", 0)
	rec.AddAttrs(
		slog.String("user_id", "7f1c"),
		slog.String("phone", "+18005551234"),
		slog.String("error", "connection reset"),
		slog.String("scan_id", "abc"),
	)

	entry := systemLogFrom(rec, []slog.Attr{slog.String("request_id", "req-1"), slog.String("action", "detect_scam")})

	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "scam detection failed", entry.Message)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "detect_scam", entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "7f1c", *entry.UserID)
	assert.Equal(t, "+18005551234", entry.Phone)
	assert.Equal(t, "connection reset", entry.Error)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, map[string]any{"scan_id": "abc"}, extra)
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("request_id", "req-2")

	log.Info("phone flagged")
	log.Error("notify failed")

	assert.Contains(t, info.String(), "phone flagged")
	assert.Contains(t, info.String(), "notify failed")
	assert.NotContains(t, errs.String(), "phone flagged")
	assert.Contains(t, errs.String(), `"request_id":"req-2"`)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestCleanup_DeletesOlderThanCutoff(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cutoff := time.Now().AddDate(0, 0, -30)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "system_logs" WHERE timestamp < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := Cleanup(db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
