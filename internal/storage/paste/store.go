// internal/storage/paste/store.go
package paste

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/rbin/internal/core"
	"github.com/newthinker/rbin/internal/metrics"
	"github.com/newthinker/rbin/internal/pasteid"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds consecutive id collisions per create.
const DefaultMaxAttempts = 10

// Options tunes a Store.
type Options struct {
	// IDLength is the length Read accepts; it must match the generator.
	IDLength int
	// MaxAttempts is the number of candidate ids tried before giving up.
	MaxAttempts int
}

// Store allocates ids for new pastes and serves existing ones. It holds no
// per-paste state: the backend's exclusive create is the only arbiter of
// uniqueness.
type Store struct {
	backend   Backend
	generator pasteid.Generator
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// NewStore creates a Store. logger and reg may be nil.
func NewStore(backend Backend, generator pasteid.Generator, opts Options, logger *zap.Logger, reg *metrics.Registry) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IDLength <= 0 {
		opts.IDLength = pasteid.DefaultLength
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Store{
		backend:   backend,
		generator: generator,
		opts:      opts,
		logger:    logger,
		metrics:   reg,
	}
}

// Create stores content under a freshly allocated id and returns it.
//
// Collisions are retried with new ids up to MaxAttempts; after that
// core.ErrGenerationExhausted is returned. Backend failures other than a
// collision are returned as is and not retried.
func (s *Store) Create(ctx context.Context, content []byte) (string, error) {
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id, err := s.generator.Generate()
		if err != nil {
			return "", core.WrapError(core.ErrStorageIO, fmt.Errorf("generating id: %w", err))
		}

		err = s.backend.Create(ctx, id, content)
		if err == nil {
			s.metrics.RecordPasteCreated(len(content))
			s.logger.Info("paste created",
				zap.String("id", id),
				zap.Int("bytes", len(content)),
				zap.Int("attempt", attempt),
			)
			return id, nil
		}
		if !errors.Is(err, ErrExists) {
			return "", err
		}

		s.metrics.RecordCollision()
		s.logger.Debug("paste id collision", zap.String("id", id), zap.Int("attempt", attempt))
	}

	s.metrics.RecordExhausted()
	s.logger.Error("paste id space exhausted",
		zap.Int("attempts", s.opts.MaxAttempts),
		zap.Int("id_length", s.opts.IDLength),
	)
	return "", core.WrapError(core.ErrGenerationExhausted,
		fmt.Errorf("%d consecutive collisions", s.opts.MaxAttempts))
}

// Read returns the content stored under id. Malformed ids are rejected
// with core.ErrInvalidIdentifier before the backend is consulted.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	if err := pasteid.Validate(id, s.opts.IDLength); err != nil {
		s.metrics.RecordRead(metrics.ReadInvalid)
		return nil, err
	}

	data, err := s.backend.Read(ctx, id)
	switch {
	case err == nil:
		s.metrics.RecordRead(metrics.ReadFound)
	case errors.Is(err, core.ErrNotFound):
		s.metrics.RecordRead(metrics.ReadNotFound)
	default:
		s.metrics.RecordRead(metrics.ReadError)
	}
	return data, err
}

// IDLength returns the identifier length the store accepts.
func (s *Store) IDLength() int {
	return s.opts.IDLength
}
