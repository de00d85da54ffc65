// Package business serves the shop settings row.
package business

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/business"
	"github.com/minegocio/backend/internal/domain/shared"
)

// Cache holds the settings row between reads. Misses and failures are not
// errors for callers; the repository is the source of truth.
//
// Every Invalidate starts a new generation. Get reports the generation it
// observed, hit or miss, and Set stores a row only while that generation is
// still current, so a read that raced an update cannot cache the old row.
type Cache interface {
	Get(ctx context.Context) (b *business.Business, generation int64, ok bool)
	Set(ctx context.Context, b *business.Business, generation int64)
	Invalidate(ctx context.Context)
}

// Service reads and updates the business settings
type Service struct {
	repo   business.Repository
	cache  Cache
	logger *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithCache enables read-through caching of the settings row
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service
func NewService(repo business.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		cache:  noCache{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetInstance returns the settings row, creating it with defaults on first read
func (s *Service) GetInstance(ctx context.Context) (*BusinessResponse, error) {
	b, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToBusinessResponse(b)
	return &resp, nil
}

// Current returns the settings entity for other services, such as reports
// rendered in the business currency
func (s *Service) Current(ctx context.Context) (*business.Business, error) {
	return s.load(ctx)
}

// Update applies the non-nil fields of req. Last writer wins.
func (s *Service) Update(ctx context.Context, req UpdateBusinessRequest) (*BusinessResponse, error) {
	b, err := s.find(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.Apply(req.toUpdate()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("Business settings updated", zap.String("name", b.Name), zap.String("currency", b.Currency.String()))
	resp := ToBusinessResponse(b)
	return &resp, nil
}

// Currencies lists the supported currency codes with their symbols
func (s *Service) Currencies() []CurrencyResponse {
	return supportedCurrencies()
}

func (s *Service) load(ctx context.Context) (*business.Business, error) {
	cached, generation, ok := s.cache.Get(ctx)
	if ok {
		return cached, nil
	}
	b, err := s.find(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, b, generation)
	return b, nil
}

// find reads the row from the repository, inserting the defaults when absent.
// Racing first reads converge on whichever insert won.
func (s *Service) find(ctx context.Context) (*business.Business, error) {
	b, err := s.repo.Find(ctx)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if err := s.repo.CreateIfAbsent(ctx, business.NewDefault()); err != nil {
		return nil, err
	}
	s.logger.Info("Created default business settings")
	return s.repo.Find(ctx)
}

type noCache struct{}

func (noCache) Get(context.Context) (*business.Business, int64, bool) { return nil, 0, false }
func (noCache) Set(context.Context, *business.Business, int64)        {}
func (noCache) Invalidate(context.Context)                            {}
