package usecase

import (
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
)

type UseCases struct {
	repo  interfaces.Repository
	index interfaces.VectorIndex
	now   func() time.Time

	Memory *MemoryUseCase
}

type Option func(*UseCases)

// WithNow overrides the clock used for CreatedAt timestamps. Tests use it
// to get deterministic record ordering.
func WithNow(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, index interfaces.VectorIndex, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:  repo,
		index: index,
		now:   func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Memory = NewMemoryUseCase(repo, index)
	uc.Memory.now = uc.now

	return uc
}
