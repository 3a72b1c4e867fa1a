package calculation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/emission"
	"github.com/ecotrace/ecotrace/internal/events"
	"github.com/ecotrace/ecotrace/internal/telemetry"
)

// ServiceConfig holds configuration for the calculation service.
type ServiceConfig struct {
	Repository  Repository
	Factors     emission.Factors
	Publisher   events.Publisher
	Instruments *telemetry.Instruments
	Logger      zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service provides calculation operations.
type Service struct {
	repo        Repository
	factors     emission.Factors
	publisher   events.Publisher
	instruments *telemetry.Instruments
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a new calculation service.
func NewService(cfg ServiceConfig) *Service {
	factors := cfg.Factors
	if len(factors) == 0 {
		factors = emission.DefaultFactors()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(cfg.Logger)
	}
	instruments := cfg.Instruments
	if instruments == nil {
		instruments = telemetry.NoopInstruments()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:        cfg.Repository,
		factors:     factors,
		publisher:   publisher,
		instruments: instruments,
		logger:      cfg.Logger,
		now:         now,
	}
}

// Factors returns the factor set used for computation.
func (s *Service) Factors() emission.Factors {
	return s.factors
}

// Estimate computes a result without persisting anything.
// Missing dates are treated as a single-day period.
func (s *Service) Estimate(input SaveInput) emission.Result {
	from := s.now()
	if input.From != nil {
		from = *input.From
	}
	to := from
	if input.To != nil {
		to = *input.To
	}

	subject := emission.Subject{Type: input.SubjectType, HouseholdSize: input.HouseholdSize}.Normalize()
	return s.factors.Compute(input.Inputs.Sanitize(), emission.Period{From: from, To: to}, subject)
}

// Save validates the input, recomputes the results and stores a new calculation.
// Results supplied by the client are never trusted.
func (s *Service) Save(ctx context.Context, userID string, input SaveInput) (*Calculation, error) {
	inputs := input.Inputs.Sanitize()

	var errs []models.FieldError
	if userID == "" {
		errs = append(errs, models.FieldError{Field: "userId", Message: "is required"})
	}
	if input.From == nil {
		errs = append(errs, models.FieldError{Field: "period.from", Message: "is required"})
	}
	if input.To == nil {
		errs = append(errs, models.FieldError{Field: "period.to", Message: "is required"})
	}
	if inputs.IsZero() {
		errs = append(errs, models.FieldError{Field: "inputs", Message: "at least one activity quantity must be greater than zero"})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	period := emission.Period{From: *input.From, To: *input.To}
	subject := emission.Subject{Type: input.SubjectType, HouseholdSize: input.HouseholdSize}.Normalize()
	results := s.factors.Compute(inputs, period, subject)

	calc := &Calculation{
		ID:     "calc_" + uuid.New().String()[:22],
		UserID: userID,
		Period: Period{
			From: period.From,
			To:   period.To,
			Days: results.Days,
		},
		Subject:   subject,
		Inputs:    inputs,
		Results:   results,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, calc); err != nil {
		return nil, err
	}

	s.instruments.CalculationSaved(ctx, subject.Type, results.Total)
	s.publish(ctx, events.TypeCalculationSaved, calc)

	return calc, nil
}

// List retrieves all calculations of a user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Calculation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get retrieves a calculation owned by the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*Calculation, error) {
	return s.repo.GetByUserAndID(ctx, userID, id)
}

// Delete removes a calculation owned by the user. A calculation owned by
// someone else is reported as not found.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	calc, err := s.repo.GetByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrCalculationNotFound) {
			return ErrCalculationNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, calc.ID); err != nil {
		return err
	}

	s.instruments.CalculationDeleted(ctx)
	s.publish(ctx, events.TypeCalculationDeleted, calc)
	return nil
}

// publish is best effort: the record is already durable, so a broker
// failure only delays tips generation.
func (s *Service) publish(ctx context.Context, eventType string, calc *Calculation) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:          eventType,
		CalculationID: calc.ID,
		UserID:        calc.UserID,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("calculation_id", calc.ID).
			Msg("failed to publish calculation event")
	}
}
