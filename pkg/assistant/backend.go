package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// Backend is the inference collaborator. The chat core treats it as opaque:
// it uploads a resume, asks free-form questions, probes health, and requests
// generated interview questions. Implementations live behind this interface
// so tests can substitute a fake.
type Backend interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
	Query(ctx context.Context, query string) (string, error)
	Status(ctx context.Context) (json.RawMessage, error)
	InterviewQuestions(ctx context.Context) (string, error)
}

// ErrBackendStatus marks a non-2xx reply from the backend.
var ErrBackendStatus = errors.New("backend returned a non-success status")

// ErrBackendReported marks a 2xx reply whose body carried an error field.
var ErrBackendReported = errors.New("backend reported an error")
