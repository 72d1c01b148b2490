package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("database not opened")

// QueryRecord is one answered (or failed) question.
type QueryRecord struct {
	ID             string        `json:"id"`
	Question       string        `json:"question"`
	GeneratedQuery string        `json:"generated_query,omitempty"`
	Answer         string        `json:"answer,omitempty"`
	Error          string        `json:"error,omitempty"`
	Host           string        `json:"host,omitempty"`
	ModelID        string        `json:"model_id,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Failed reports whether the question ended in an error.
func (r QueryRecord) Failed() bool {
	return r.Error != ""
}

// Store persists query history.
type Store interface {
	RecordQuery(ctx context.Context, rec *QueryRecord) error
	ListQueries(ctx context.Context, limit int) ([]QueryRecord, error)
	Close() error
}
