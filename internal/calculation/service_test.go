package calculation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/emission"
	"github.com/ecotrace/ecotrace/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newTestService(t *testing.T, pub events.Publisher) (*calculation.Service, *calculation.InMemoryRepository) {
	t.Helper()
	repo := calculation.NewInMemoryRepository()
	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := calculation.NewService(calculation.ServiceConfig{
		Repository: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	return svc, repo
}

func validInput() calculation.SaveInput {
	return calculation.SaveInput{
		From:        date(2024, 1, 1),
		To:          date(2024, 1, 30),
		SubjectType: emission.SubjectIndividual,
		Inputs: emission.Activity{
			Energy:         emission.Energy{Electricity: 100},
			Transportation: emission.Transportation{CarDistance: 50},
		},
	}
}

func TestService_Save(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, pub)
	ctx := context.Background()

	calc, err := svc.Save(ctx, "usr_1", validInput())
	require.NoError(t, err)

	assert.Contains(t, calc.ID, "calc_")
	assert.Equal(t, "usr_1", calc.UserID)
	assert.Equal(t, 30, calc.Period.Days)
	assert.InDelta(t, 85.0, calc.Results.Energy, 1e-9)
	assert.InDelta(t, 6.0, calc.Results.Transport, 1e-9)
	assert.InDelta(t, 91.0, calc.Results.Total, 1e-9)
	assert.InDelta(t, 91.0, calc.Results.PerPerson, 1e-9)
	assert.Equal(t, []string{events.TypeCalculationSaved}, pub.types())

	stored, err := svc.Get(ctx, "usr_1", calc.ID)
	require.NoError(t, err)
	assert.Equal(t, calc.Results, stored.Results)
}

func TestService_Save_SanitizesAndRecomputes(t *testing.T) {
	svc, _ := newTestService(t, nil)

	input := validInput()
	input.Inputs.Food.Meat = -5
	input.SubjectType = emission.SubjectFamily
	input.HouseholdSize = 0

	calc, err := svc.Save(context.Background(), "usr_1", input)
	require.NoError(t, err)

	assert.Zero(t, calc.Inputs.Food.Meat)
	assert.Zero(t, calc.Results.Food)
	assert.Equal(t, 1, calc.Subject.HouseholdSize)
	assert.InDelta(t, calc.Results.Total, calc.Results.PerPerson, 1e-9)
}

func TestService_Save_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Save(context.Background(), "", calculation.SaveInput{})

	var verr *calculation.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"userId", "period.from", "period.to", "inputs"}, fields)
}

func TestService_Save_ReversedPeriodIsZero(t *testing.T) {
	svc, _ := newTestService(t, nil)

	input := validInput()
	input.From, input.To = input.To, input.From

	calc, err := svc.Save(context.Background(), "usr_1", input)
	require.NoError(t, err)
	assert.Equal(t, emission.Result{}, calc.Results)
	assert.Zero(t, calc.Period.Days)
}

func TestService_Save_PublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, pub)

	calc, err := svc.Save(context.Background(), "usr_1", validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, calc.ID)
}

func TestService_List_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Save(ctx, "usr_1", validInput())
	require.NoError(t, err)
	second, err := svc.Save(ctx, "usr_1", validInput())
	require.NoError(t, err)
	_, err = svc.Save(ctx, "usr_2", validInput())
	require.NoError(t, err)

	list, err := svc.List(ctx, "usr_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestService_Delete_Ownership(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, pub)
	ctx := context.Background()

	calc, err := svc.Save(ctx, "usr_1", validInput())
	require.NoError(t, err)

	err = svc.Delete(ctx, "usr_2", calc.ID)
	assert.ErrorIs(t, err, calculation.ErrCalculationNotFound)

	_, err = svc.Get(ctx, "usr_2", calc.ID)
	assert.ErrorIs(t, err, calculation.ErrCalculationNotFound)

	require.NoError(t, svc.Delete(ctx, "usr_1", calc.ID))
	assert.Equal(t, []string{events.TypeCalculationSaved, events.TypeCalculationDeleted}, pub.types())

	err = svc.Delete(ctx, "usr_1", calc.ID)
	assert.ErrorIs(t, err, calculation.ErrCalculationNotFound)
}

func TestService_Estimate(t *testing.T) {
	svc, repo := newTestService(t, nil)

	res := svc.Estimate(validInput())
	assert.InDelta(t, 91.0, res.Total, 1e-9)

	list, err := repo.ListByUser(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_Estimate_DefaultsToSingleDay(t *testing.T) {
	svc, _ := newTestService(t, nil)

	res := svc.Estimate(calculation.SaveInput{
		Inputs: emission.Activity{Energy: emission.Energy{Electricity: 30}},
	})
	assert.Equal(t, 1, res.Days)
	assert.InDelta(t, 0.85, res.Total, 1e-9)
}

func TestService_CustomFactors(t *testing.T) {
	svc := calculation.NewService(calculation.ServiceConfig{
		Repository: calculation.NewInMemoryRepository(),
		Factors:    emission.Factors{emission.KeyElectricity: 0.5},
		Logger:     zerolog.Nop(),
	})

	res := svc.Estimate(validInput())
	assert.InDelta(t, 50.0, res.Total, 1e-9)
	assert.InDelta(t, 0.5, svc.Factors().Factor(emission.KeyElectricity), 1e-9)
}

func TestRecords(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "usr_1", validInput())
	require.NoError(t, err)

	list, err := svc.List(ctx, "usr_1")
	require.NoError(t, err)

	records := calculation.Records(list)
	require.Len(t, records, 1)
	assert.Equal(t, 30, records[0].Days)
	assert.Equal(t, list[0].Period.From, records[0].From)
	assert.InDelta(t, 91.0, records[0].Results.Total, 1e-9)
}
