package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/featureflags"
)

func newService(repo featureflags.Repository, ttl time.Duration) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   ttl,
	})
}

func TestService_GetFlag(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	flag := service.GetFlag(ctx, featureflags.FlagDisableAssistant)
	if flag == nil {
		t.Fatal("expected flag to be returned")
	}
	if flag.Key != featureflags.FlagDisableAssistant {
		t.Errorf("expected key %q, got %q", featureflags.FlagDisableAssistant, flag.Key)
	}
	if flag.BoolValue(true) {
		t.Error("expected disable_assistant to be false by default")
	}

	if service.GetFlag(ctx, "nonexistent") != nil {
		t.Error("expected nil for unknown flag")
	}
}

func TestService_SetFlags(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	err := service.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableAssistant, Value: true},
		{Key: featureflags.FlagDashboardSeriesLength, Value: float64(12)},
	})
	if err != nil {
		t.Fatalf("failed to set flags: %v", err)
	}

	if !service.AssistantDisabled(ctx) {
		t.Error("expected assistant to be disabled")
	}
	if got := service.DashboardSeriesLength(ctx); got != 12 {
		t.Errorf("expected series length 12, got %d", got)
	}
}

func TestService_SetFlags_UnknownKey(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, time.Minute)
	ctx := context.Background()

	err := service.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableAssistant, Value: true},
		{Key: "disable_everything", Value: true},
	})
	if !errors.Is(err, featureflags.ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}

	flag, _ := repo.GetFlag(ctx, featureflags.FlagDisableAssistant)
	if flag.BoolValue(false) {
		t.Error("expected no flag to be written when one key is unknown")
	}
}

func TestService_GetAllFlags(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepositoryWithFlags(nil), time.Minute)
	flags := service.GetAllFlags(context.Background())

	for key := range featureflags.DefaultFlags() {
		if _, ok := flags[key]; !ok {
			t.Errorf("expected flag %q to be present", key)
		}
	}
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, time.Hour)
	ctx := context.Background()

	_ = service.GetFlag(ctx, featureflags.FlagDisableTipsGeneration)

	// Bypass the service so the cache goes stale.
	_ = repo.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableTipsGeneration, Value: true})

	if service.TipsGenerationDisabled(ctx) {
		t.Error("expected cached value before invalidation")
	}

	service.InvalidateCache()

	if !service.TipsGenerationDisabled(ctx) {
		t.Error("expected updated value after cache invalidation")
	}
}

func TestService_Defaults(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepositoryWithFlags(nil), time.Minute)
	ctx := context.Background()

	if service.AssistantDisabled(ctx) {
		t.Error("expected assistant to be enabled by default")
	}
	if service.TipsGenerationDisabled(ctx) {
		t.Error("expected tips generation to be enabled by default")
	}
	if !service.SignupEnabled(ctx) {
		t.Error("expected signup to be enabled by default")
	}
	if got := service.DashboardSeriesLength(ctx); got != 6 {
		t.Errorf("expected default series length 6, got %d", got)
	}
}

func TestService_DashboardSeriesLengthClamped(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		featureflags.FlagDashboardSeriesLength: {Key: featureflags.FlagDashboardSeriesLength, Value: float64(-4)},
	})
	service := newService(repo, time.Minute)

	if got := service.DashboardSeriesLength(context.Background()); got != 1 {
		t.Errorf("expected clamped length 1, got %d", got)
	}
}

func TestFlag_ValueHelpers(t *testing.T) {
	tests := []struct {
		name        string
		value       interface{}
		defaultBool bool
		defaultInt  int
		wantBool    bool
		wantInt     int
	}{
		{"boolean true", true, false, 42, true, 42},
		{"boolean false", false, true, 42, false, 42},
		{"string value", "hello", false, 7, false, 7},
		{"json number", float64(100), false, 0, true, 100},
		{"int value", 3, true, 0, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &featureflags.Flag{Key: "test", Value: tt.value, UpdatedAt: time.Now()}

			if got := flag.BoolValue(tt.defaultBool); got != tt.wantBool {
				t.Errorf("BoolValue() = %v, want %v", got, tt.wantBool)
			}
			if got := flag.IntValue(tt.defaultInt); got != tt.wantInt {
				t.Errorf("IntValue() = %v, want %v", got, tt.wantInt)
			}
		})
	}
}

func TestFlag_NilFlag(t *testing.T) {
	var flag *featureflags.Flag

	if !flag.BoolValue(true) {
		t.Error("expected default value for nil flag")
	}
	if flag.IntValue(42) != 42 {
		t.Error("expected default value for nil flag")
	}
}

func TestInMemoryRepository_DeleteFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.DeleteFlag(ctx, featureflags.FlagEnableSignup); err != nil {
		t.Fatalf("failed to delete flag: %v", err)
	}

	_, err := repo.GetFlag(ctx, featureflags.FlagEnableSignup)
	if !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound after delete, got %v", err)
	}

	err = repo.DeleteFlag(ctx, "nonexistent")
	if !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound for non-existent flag, got %v", err)
	}
}
