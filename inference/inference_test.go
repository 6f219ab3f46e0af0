package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var discardLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func TestChat(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expected        string
		expectedErr     error
		expectedUnknown bool
	}{
		{
			name:     "message content is returned",
			status:   http.StatusOK,
			body:     `{"model":"tinyllama","message":{"role":"assistant","content":"Hi there!"},"done":true}`,
			expected: "Hi there!",
		},
		{
			name:     "empty content is returned as-is",
			status:   http.StatusOK,
			body:     `{"message":{"content":""}}`,
			expected: "",
		},
		{
			name:        "missing message is a malformed response",
			status:      http.StatusOK,
			body:        `{"done":true}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "missing content is a malformed response",
			status:      http.StatusOK,
			body:        `{"message":{"role":"assistant"}}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "null content is a malformed response",
			status:      http.StatusOK,
			body:        `{"message":{"content":null}}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "a JSON array is a malformed response",
			status:      http.StatusOK,
			body:        `[1, 2, 3]`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:            "invalid JSON is an unknown failure",
			status:          http.StatusOK,
			body:            `not json`,
			expectedUnknown: true,
		},
		{
			name:        "non-200 status is unavailable",
			status:      http.StatusInternalServerError,
			body:        `{"error":"model not found"}`,
			expectedErr: ErrUnavailable,
		},
		{
			name:        "201 status is unavailable",
			status:      http.StatusCreated,
			body:        `{"message":{"content":"Hi there!"}}`,
			expectedErr: ErrUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer s.Close()

			c := New(discardLogger, Config{URL: s.URL})
			actual, err := c.Chat(context.Background(), "hello")
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if tt.expectedUnknown {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				for _, known := range []error{ErrUnavailable, ErrTimeout, ErrMalformedResponse} {
					if errors.Is(err, known) {
						t.Fatalf("expected an unknown error, got %v", err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestChatRequest(t *testing.T) {
	var method, path, contentType string
	var actual Request
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&actual); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		io.WriteString(w, `{"message":{"content":"ok"}}`)
	}))
	defer s.Close()

	// Trailing slashes on the base URL are ignored.
	c := New(discardLogger, Config{URL: s.URL + "/"})
	if _, err := c.Chat(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != http.MethodPost {
		t.Errorf("expected method POST, got %q", method)
	}
	if path != "/api/chat" {
		t.Errorf("expected path /api/chat, got %q", path)
	}
	if contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", contentType)
	}
	expected := Request{
		Model:    "tinyllama",
		Messages: []Message{{Role: "user", Content: "hello"}},
		Stream:   false,
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Error(diff)
	}
}

func TestChatConnectionRefused(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL
	s.Close()

	c := New(discardLogger, Config{URL: url})
	_, err := c.Chat(context.Background(), "hello")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestChatTimeout(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.ReadAll(r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer s.Close()

	c := New(discardLogger, Config{URL: s.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Chat(context.Background(), "hello")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := New(discardLogger, Config{})
	expected := Config{
		URL:     "http://localhost:11434",
		Model:   "tinyllama",
		Timeout: 30 * time.Second,
	}
	if diff := cmp.Diff(expected, c.config); diff != "" {
		t.Error(diff)
	}
}
