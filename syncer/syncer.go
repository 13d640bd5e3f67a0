package syncer

import (
	"log/slog"

	"github.com/testmytrinh/tmt-lms-backend/relation"
)

// Syncer holds the store client shared by every entity synchronizer.
type Syncer struct {
	client relation.Client
	logger *slog.Logger
}

// Option is a functional option for the Syncer.
type Option func(*Syncer)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(s *Syncer) { s.logger = l } }

// New creates a Syncer over the given store client.
func New(c relation.Client, opts ...Option) *Syncer {
	s := &Syncer{
		client: c,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// logSync records the outcome of one reconciliation call.
func (s *Syncer) logSync(op, key string, written, deleted int) {
	if written == 0 && deleted == 0 {
		return
	}
	s.logger.Debug("synced tuples",
		slog.String("op", op),
		slog.String("key", key),
		slog.Int("writes", written),
		slog.Int("deletes", deleted),
	)
}
