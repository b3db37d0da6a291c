package gateway

import (
	"context"
	"errors"
	"testing"
)

type echoBrain struct {
	err    error
	chatID string
}

func (b *echoBrain) Think(ctx context.Context, chatID string, input string) (string, error) {
	b.chatID = chatID
	if b.err != nil {
		return "", b.err
	}
	return "echo: " + input, nil
}

func TestReply(t *testing.T) {
	brain := &echoBrain{}
	got, ok := reply(context.Background(), brain, "7", "  is it raining?  ")
	if !ok || got != "echo: is it raining?" {
		t.Errorf("Unexpected reply %q (ok=%v)", got, ok)
	}
	if brain.chatID != "7" {
		t.Errorf("Expected chat 7, got %s", brain.chatID)
	}

	if _, ok := reply(context.Background(), brain, "7", "   "); ok {
		t.Error("Expected no reply for an empty message")
	}

	brain.err = errors.New("boom")
	got, _ = reply(context.Background(), brain, "7", "hello")
	if got != troubleResponse {
		t.Errorf("Expected trouble response, got %q", got)
	}
}

func TestParseChatID(t *testing.T) {
	if id, err := parseChatID("-1001234"); err != nil || id != -1001234 {
		t.Errorf("parseChatID = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "abc"} {
		if _, err := parseChatID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestDiscordGatewayImplementsMessenger(t *testing.T) {
	dg, err := NewDiscordGateway("token", &echoBrain{})
	if err != nil {
		t.Fatal(err)
	}
	var _ Messenger = dg
	var _ Messenger = (*TelegramGateway)(nil)
}
