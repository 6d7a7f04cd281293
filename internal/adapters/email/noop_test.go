package email

import (
	"context"
	"testing"
	"time"
)

func TestNoopSender_Send(t *testing.T) {
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s := &NoopSender{now: func() time.Time { return at }}
	res, err := s.Send(context.Background(), SendRequest{To: []string{"admin@club.test"}, Subject: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.SentAt.Equal(at) || res.MessageID == "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResendSender_RejectsEmptyRecipients(t *testing.T) {
	s := NewResendSender("re_test", "Club <noreply@club.test>")
	if _, err := s.Send(context.Background(), SendRequest{Subject: "hi"}); err != ErrNoRecipients {
		t.Errorf("Send() = %v, want ErrNoRecipients", err)
	}
}
