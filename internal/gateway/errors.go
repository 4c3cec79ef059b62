package gateway

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ServerError is a non-2xx response. Message is what the user sees: the
// server's JSON message or title, the raw body, or a status fallback.
type ServerError struct {
	Op      string
	Status  int
	Message string
	Body    string
}

func (e *ServerError) Error() string { return e.Message }

// NetworkError is a transport failure: the request never got a response,
// or the response could not be read or decoded.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// problem covers the error bodies the backend emits: its own {"message": ...}
// and the framework's problem details {"title": ...}.
type problem struct {
	Message string `json:"message"`
	Title   string `json:"title"`
}

// messageFromBody extracts the user-facing text of an error response.
func messageFromBody(status int, body []byte) string {
	var p problem
	if err := json.Unmarshal(body, &p); err == nil {
		if p.Message != "" {
			return p.Message
		}
		if p.Title != "" {
			return p.Title
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(text, 500)
	}
	return fmt.Sprintf("Erro: %d", status)
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
