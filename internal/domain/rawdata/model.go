package rawdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Payload is an untouched provider response kept for audit and replay.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	Body        string
	PayloadHash string
	FetchedAt   time.Time
}

type Repository interface {
	UpsertMany(ctx context.Context, runID string, items []Payload) error
}

// Recorder collects payloads while adapters fetch; a nil Recorder drops them.
type Recorder struct {
	mu    sync.Mutex
	items []Payload
	now   func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) Record(source, entityType, entityKey string, body []byte) {
	if r == nil {
		return
	}
	sum := sha256.Sum256(body)
	r.mu.Lock()
	r.items = append(r.items, Payload{
		Source:      source,
		EntityType:  entityType,
		EntityKey:   entityKey,
		Body:        string(body),
		PayloadHash: hex.EncodeToString(sum[:]),
		FetchedAt:   r.now().UTC(),
	})
	r.mu.Unlock()
}

// Drain hands back everything recorded so far and resets the buffer.
func (r *Recorder) Drain() []Payload {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
