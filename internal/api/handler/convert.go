package handler

import (
	"context"
	"time"

	"github.com/ecotrace/ecotrace/internal/api/middleware"
	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/auth"
	"github.com/ecotrace/ecotrace/internal/calculation"
	"github.com/ecotrace/ecotrace/internal/emission"
)

// GetUserID returns the user ID placed in the context by the auth middleware.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

func toSaveInput(req *models.CalculationRequest) calculation.SaveInput {
	period := req.EffectivePeriod()
	in := calculation.SaveInput{
		SubjectType:   emission.ParseSubjectType(req.UserType),
		HouseholdSize: req.HouseholdSize,
		Inputs:        req.Inputs,
	}
	if period.From != nil {
		t := period.From.Time()
		in.From = &t
	}
	if period.To != nil {
		t := period.To.Time()
		in.To = &t
	}
	return in
}

func toCalculation(c *calculation.Calculation) models.Calculation {
	return models.Calculation{
		ID:     c.ID,
		UserID: c.UserID,
		Period: models.Period{
			From: models.Date(c.Period.From),
			To:   models.Date(c.Period.To),
			Days: c.Period.Days,
		},
		UserType:      string(c.Subject.Type),
		HouseholdSize: c.Subject.HouseholdSize,
		Inputs:        c.Inputs,
		Results:       c.Results,
		CreatedAt:     models.Timestamp(c.CreatedAt),
	}
}

func toUser(u *auth.User) models.User {
	return models.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: models.Timestamp(u.CreatedAt),
	}
}

func timestampPtr(t time.Time) *models.Timestamp {
	if t.IsZero() {
		return nil
	}
	ts := models.Timestamp(t)
	return &ts
}
