package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-salesboard/pkg/chat"
)

type chatCmd struct {
	Message []string `arg:"" optional:"" help:"Question to ask. Reads one question per line from stdin when omitted."`

	in io.Reader `kong:"-"`
}

var assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

func (c *chatCmd) Run(ctx context.Context, g *Globals) error {
	responder := chat.NewRuleResponder(nil)
	if len(c.Message) > 0 {
		return c.ask(ctx, g.out(), responder, strings.Join(c.Message, " "))
	}
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := c.ask(ctx, g.out(), responder, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (c *chatCmd) ask(ctx context.Context, w io.Writer, responder chat.Responder, question string) error {
	reply, err := responder.Reply(ctx, question)
	if errors.Is(err, chat.ErrEmptyMessage) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, assistantStyle.Render(reply.Content))
	return err
}
