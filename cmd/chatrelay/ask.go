package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a-h/chatrelay/client"
	"github.com/a-h/chatrelay/models"
)

type AskCommand struct {
	RelayURL string `help:"The URL of the chat relay server." env:"RELAY_URL" default:"http://localhost:5000"`
	Message  string `help:"The message to send." short:"m" required:""`
	LogLevel string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c AskCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	log.Debug("sending message", slog.String("url", c.RelayURL))

	resp, err := client.New(c.RelayURL).ChatPost(ctx, models.ChatPostRequest{
		Message: c.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	fmt.Println(resp.Reply)
	return nil
}
