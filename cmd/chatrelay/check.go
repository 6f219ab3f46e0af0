package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

type CheckCommand struct {
	OllamaURL string        `help:"The URL of the Ollama server." env:"OLLAMA_URL" default:"http://localhost:11434"`
	ChatModel string        `help:"The model to chat with." env:"CHAT_MODEL" default:"tinyllama"`
	Timeout   time.Duration `help:"How long to wait for the model to respond." env:"OLLAMA_TIMEOUT" default:"30s"`
	Prompt    string        `help:"The prompt to send." default:"Reply with a short greeting."`
	LogLevel  string        `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c CheckCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	log.Info("creating LLM client", slog.String("url", c.OllamaURL), slog.String("model", c.ChatModel))
	llm, err := ollama.New(
		ollama.WithModel(c.ChatModel),
		ollama.WithHTTPClient(&http.Client{Timeout: c.Timeout}),
		ollama.WithServerURL(c.OllamaURL))
	if err != nil {
		return fmt.Errorf("failed to create LLM: %w", err)
	}

	start := time.Now()
	output, err := llms.GenerateFromSinglePrompt(ctx, llm, c.Prompt)
	if err != nil {
		return fmt.Errorf("failed to generate content with model %q: %w", c.ChatModel, err)
	}
	log.Info("model responded", slog.Duration("duration", time.Since(start)))
	fmt.Println(output)
	return nil
}
