package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/jsonapi"
)

const (
	DefaultURL     = "http://localhost:11434"
	DefaultModel   = "tinyllama"
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrUnavailable is returned when the backend can't be reached, or responds with a non-200 status.
	ErrUnavailable = errors.New("inference backend unavailable")
	// ErrTimeout is returned when the backend doesn't respond within the configured timeout.
	ErrTimeout = errors.New("inference backend timed out")
	// ErrMalformedResponse is returned when the backend responds with JSON that has no message content.
	ErrMalformedResponse = errors.New("inference backend response has no message content")
)

// StatusError is returned for non-200 responses, and wraps ErrUnavailable.
type StatusError struct {
	Status int
	Body   string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

func (e StatusError) Unwrap() error {
	return ErrUnavailable
}

type Config struct {
	// URL of the Ollama server, e.g. http://localhost:11434
	URL     string
	Model   string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	return c
}

func New(log *slog.Logger, config Config) *Client {
	return &Client{
		log:    log,
		config: config.withDefaults(),
	}
}

type Client struct {
	log    *slog.Logger
	config Config
}

const RoleUser = "user"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Response is the subset of the Ollama chat response used by the relay.
// Pointers distinguish missing fields from empty ones.
type Response struct {
	Message *ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content *string `json:"content"`
}

func NewRequest(model, message string) Request {
	return Request{
		Model: model,
		Messages: []Message{
			{Role: RoleUser, Content: message},
		},
		Stream: false,
	}
}

// Chat sends a single user message to the backend and returns the generated content.
func (c *Client) Chat(ctx context.Context, message string) (content string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url, err := jsonapi.URL(c.config.URL).Path("api", "chat").String()
	if err != nil {
		return "", fmt.Errorf("failed to create backend URL: %w", err)
	}
	buf, err := json.Marshal(NewRequest(c.config.Model, message))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	res, err := jsonapi.Raw(httpReq, jsonapi.WithRequestHeader("Content-Type", "application/json"))
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		c.log.Error("inference backend returned an unexpected status", slog.Int("status", res.StatusCode), slog.String("body", string(body)))
		return "", StatusError{Status: res.StatusCode, Body: string(body)}
	}
	c.log.Debug("inference backend response", slog.String("body", string(body)))

	return parseContent(body)
}

func parseContent(body []byte) (content string, err error) {
	if !json.Valid(body) {
		return "", fmt.Errorf("failed to decode response: invalid JSON: %q", truncate(string(body), 64))
	}
	var resp Response
	if err = json.Unmarshal(body, &resp); err != nil {
		// Valid JSON of an unexpected shape, e.g. an array, or a non-string content.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Message == nil || resp.Message.Content == nil {
		return "", ErrMalformedResponse
	}
	return *resp.Message.Content, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request cancelled: %w", err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
