package auth

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	EventCodeIssued   = "auth_code_issued"
	EventCodeRedeemed = "auth_code_redeemed"
	EventCodeRejected = "auth_code_rejected"
)

type AuditEvent struct {
	ID        string         `json:"id"`
	EventType string         `json:"eventType"`
	UserID    int64          `json:"userId,omitempty"`
	AuthID    int64          `json:"authId,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Auditor records auth workflow events.
type Auditor interface {
	Log(ctx context.Context, e AuditEvent) error
}

// AuditLogger appends events to capped redis lists, one per user plus a global one.
type AuditLogger struct {
	Redis  *redis.Client
	MaxLen int64
}

func NewAuditLogger(client *redis.Client, maxLen int64) *AuditLogger {
	return &AuditLogger{Redis: client, MaxLen: maxLen}
}

func (a *AuditLogger) Log(ctx context.Context, e AuditEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	keys := []string{"audit"}
	if e.UserID != 0 {
		keys = append(keys, auditUserKey(e.UserID))
	}

	pipe := a.Redis.Pipeline()
	for _, key := range keys {
		pipe.RPush(ctx, key, data)
		if a.MaxLen > 0 {
			pipe.LTrim(ctx, key, -a.MaxLen, -1)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n most recent events for userID, oldest first.
func (a *AuditLogger) Recent(ctx context.Context, userID int64, n int64) ([]AuditEvent, error) {
	raw, err := a.Redis.LRange(ctx, auditUserKey(userID), -n, -1).Result()
	if err != nil {
		return nil, err
	}
	events := make([]AuditEvent, 0, len(raw))
	for _, item := range raw {
		var e AuditEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func auditUserKey(userID int64) string {
	return "audit:" + strconv.FormatInt(userID, 10)
}
