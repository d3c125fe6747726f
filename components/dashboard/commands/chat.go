package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/chat"
)

// ChatInput is one viewer message to the assistant.
type ChatInput struct {
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Message string                  `json:"message"`
}

type chatService interface {
	Chat(ctx context.Context, viewer dashboard.ViewerContext, message string) (chat.Message, error)
}

// ChatCommand forwards viewer messages to the assistant.
type ChatCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewChatCommand builds the command.
func NewChatCommand(service chatService, telemetry Telemetry) *ChatCommand {
	return &ChatCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ChatInput] = (*ChatCommand)(nil)

// Execute sends the message and drops the reply.
func (c *ChatCommand) Execute(ctx context.Context, msg ChatInput) error {
	_, err := c.Run(ctx, msg)
	return err
}

// Run sends the message and returns the assistant reply.
func (c *ChatCommand) Run(ctx context.Context, msg ChatInput) (chat.Message, error) {
	if c.service == nil {
		return chat.Message{}, errors.New("chat command requires service")
	}
	reply, err := c.service.Chat(ctx, msg.Viewer, msg.Message)
	if err != nil {
		return chat.Message{}, err
	}
	c.telemetry.Record(ctx, EventChat, map[string]any{"keyword": reply.Keyword})
	return reply, nil
}
