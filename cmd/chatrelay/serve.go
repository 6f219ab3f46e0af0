package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	chatpost "github.com/a-h/chatrelay/handlers/chat/post"
	"github.com/a-h/chatrelay/inference"
	"github.com/a-h/chatrelay/routes"
)

type ServeCommand struct {
	OllamaURL   string        `help:"The URL of the Ollama server." env:"OLLAMA_URL" default:"http://localhost:11434"`
	ChatModel   string        `help:"The model to chat with." env:"CHAT_MODEL" default:"tinyllama"`
	Timeout     time.Duration `help:"How long to wait for the model to respond." env:"OLLAMA_TIMEOUT" default:"30s"`
	ListenAddr  string        `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:5000"`
	TLSCertFile string        `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile  string        `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	LogLevel    string        `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	backend := inference.New(log, inference.Config{
		URL:     c.OllamaURL,
		Model:   c.ChatModel,
		Timeout: c.Timeout,
	})
	c.logBackend(log)

	random := chatpost.NewRandom(rand.Uint64(), rand.Uint64())
	handler := routes.New(log, backend, random)

	log.Info("Listening", slog.String("addr", c.ListenAddr))
	s := &http.Server{
		Addr:    c.ListenAddr,
		Handler: handler,
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		return s.ListenAndServeTLS(c.TLSCertFile, c.TLSKeyFile)
	}
	return s.ListenAndServe()
}

func (c ServeCommand) logBackend(log *slog.Logger) {
	log.Info("using inference backend", slog.String("url", c.OllamaURL), slog.String("model", c.ChatModel), slog.Duration("timeout", c.Timeout))
	log.Info("make sure Ollama is running", slog.String("command", "ollama run "+c.ChatModel))
}
