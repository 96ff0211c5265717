package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func withAudit(bufferSize int, dropIfFull bool) func(*Config) {
	return func(cfg *Config) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = bufferSize
		cfg.Audit.DropIfFull = dropIfFull
	}
}

func withSink(sink AuditSink) func(*Builder) {
	return func(b *Builder) {
		b.WithAuditSink(sink)
	}
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event to be received")
		return AuditEvent{}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	te := newTestEngine(t, nil, withSink(sink))

	_, _ = te.Login(WithClientIP(context.Background(), "203.0.113.1"), "ann@example.com", "wrong-password")
	te.Close()

	require.Zero(t, sink.count.Load())
}

func TestAuditLoginFailureCarriesFieldsButNoSecrets(t *testing.T) {
	sink := NewChannelSink(8)
	te := newTestEngine(t, withAudit(16, true), withSink(sink))
	registerAnn(t, te)
	require.Equal(t, auditEventRegisterSuccess, nextEvent(t, sink).EventType)

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	_, err := te.Login(ctx, "ann@example.com", "super-secret-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	ev := nextEvent(t, sink)
	require.Equal(t, auditEventLoginFailure, ev.EventType)
	require.False(t, ev.Success)
	require.Equal(t, "198.51.100.33", ev.IP)
	require.Equal(t, string(auditErrInvalidCredentials), ev.Error)
	require.Equal(t, "password_mismatch", ev.Metadata["reason"])
	require.True(t, ev.Timestamp.Equal(te.clock.Now().UTC()))
	for _, v := range ev.Metadata {
		require.NotContains(t, v, "super-secret-password")
	}
}

func TestAuditSessionLifecycleEvents(t *testing.T) {
	sink := NewChannelSink(16)
	te := newTestEngine(t, withAudit(16, false), withSink(sink))
	ctx := context.Background()

	profile := registerAnn(t, te)
	login, err := te.Login(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	_, err = te.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, te.Logout(ctx, profile.UserID, LogoutAll))
	_, err = te.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)

	want := []string{
		auditEventRegisterSuccess,
		auditEventLoginSuccess,
		auditEventRefreshSuccess,
		auditEventLogout,
		auditEventRefreshInvalid,
	}
	for _, eventType := range want {
		ev := nextEvent(t, sink)
		require.Equal(t, eventType, ev.EventType)
		require.Equal(t, profile.UserID, ev.UserID)
	}
}

func TestAuditCloseFlushesPendingEvents(t *testing.T) {
	sink := &countingSink{}
	te := newTestEngine(t, withAudit(64, false), withSink(sink))

	for i := 0; i < 10; i++ {
		_, _ = te.Login(context.Background(), "nobody@example.com", "whatever")
	}
	te.Close()

	require.Equal(t, int64(10), sink.count.Load())
	require.Zero(t, te.AuditDropped())
}

func TestLogSinkWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1_700_000_000, 0).UTC(),
		EventType: auditEventLoginFailure,
		UserID:    "u1",
		IP:        "203.0.113.9",
		Error:     string(auditErrInvalidCredentials),
		Metadata:  map[string]string{"reason": "password_mismatch"},
	})

	line := strings.TrimSpace(buf.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	require.Equal(t, "warn", got["level"])
	require.Equal(t, "audit", got["component"])
	require.Equal(t, auditEventLoginFailure, got["event_type"])
	require.Equal(t, "u1", got["user_id"])
	require.Equal(t, "203.0.113.9", got["ip"])
}
