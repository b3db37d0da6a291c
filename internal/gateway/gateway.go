// Package gateway connects the assistant to chat platforms.
package gateway

import (
	"context"
	"log"
	"strings"

	"github.com/rahul/agentladder/internal/agent"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start listens for messages until ctx is cancelled
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

const troubleResponse = "I'm having trouble thinking right now..."

// reply routes one incoming message to the brain. Empty messages get no
// reply.
func reply(ctx context.Context, brain agent.Brain, chatID, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	response, err := brain.Think(ctx, chatID, text)
	if err != nil {
		log.Printf("Error thinking: %v", err)
		response = troubleResponse
	}
	return response, true
}
