package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration
	DefaultFlags map[string]*Flag
}

// Service evaluates feature flags with caching and fallback to defaults.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}

	defaultFlags := cfg.DefaultFlags
	if defaultFlags == nil {
		defaultFlags = DefaultFlags()
	}

	return &Service{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		defaultFlags: defaultFlags,
		cache:        make(map[string]*Flag),
	}
}

// GetFlag returns the cached, stored or default value of key, in that order.
// It returns nil for keys that exist nowhere.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.getCached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	if err == nil {
		s.setCached(key, flag)
		return flag
	}

	if !errors.Is(err, ErrFlagNotFound) {
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
	}

	if defaultFlag, ok := s.defaultFlags[key]; ok {
		return defaultFlag
	}
	return nil
}

// GetAllFlags returns stored flags merged over the defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	result := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		result[k] = v
	}

	flags, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
		return result
	}

	for k, v := range flags {
		result[k] = v
	}

	s.mu.Lock()
	s.cache = flags
	s.cacheExpiry = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return result
}

// SetFlags updates several flags at once. Keys without a default are rejected.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := time.Now()
	for _, flag := range flags {
		if _, ok := s.defaultFlags[flag.Key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFlag, flag.Key)
		}
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	s.mu.Lock()
	for _, flag := range flags {
		s.cache[flag.Key] = flag
	}
	s.mu.Unlock()

	return nil
}

// InvalidateCache clears the cached flags, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.cacheExpiry = time.Time{}
}

// IsEnabled returns true if the flag with the given key is truthy.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

func (s *Service) getCached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.cache[key]
}

func (s *Service) setCached(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = flag
	if s.cacheExpiry.Before(time.Now()) {
		s.cacheExpiry = time.Now().Add(s.cacheTTL)
	}
}

// AssistantDisabled reports whether the chat assistant is switched off.
func (s *Service) AssistantDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableAssistant)
}

// TipsGenerationDisabled reports whether the worker should skip assistant tips.
func (s *Service) TipsGenerationDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableTipsGeneration)
}

// SignupEnabled reports whether new accounts may be created.
func (s *Service) SignupEnabled(ctx context.Context) bool {
	return s.GetFlag(ctx, FlagEnableSignup).BoolValue(true)
}

// DashboardSeriesLength returns the configured chart length, at least 1.
func (s *Service) DashboardSeriesLength(ctx context.Context) int {
	n := s.GetFlag(ctx, FlagDashboardSeriesLength).IntValue(6)
	if n < 1 {
		return 1
	}
	return n
}
