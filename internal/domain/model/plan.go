package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"plan-catalog/internal/domain"
)

// DurationUnit is the billing period unit of a plan.
type DurationUnit string

const (
	DurationDay   DurationUnit = "DAY"
	DurationWeek  DurationUnit = "WEEK"
	DurationMonth DurationUnit = "MONTH"
	DurationYear  DurationUnit = "YEAR"
)

// DurationUnits lists the recognized units in ascending order.
func DurationUnits() []DurationUnit {
	return []DurationUnit{DurationDay, DurationWeek, DurationMonth, DurationYear}
}

func (u DurationUnit) String() string { return string(u) }

func (u DurationUnit) IsValid() bool {
	switch u {
	case DurationDay, DurationWeek, DurationMonth, DurationYear:
		return true
	}
	return false
}

// ParseDurationUnit normalizes case and surrounding space before matching.
func ParseDurationUnit(s string) (DurationUnit, error) {
	u := DurationUnit(strings.ToUpper(strings.TrimSpace(s)))
	if !u.IsValid() {
		verr := &domain.ValidationError{}
		verr.Add("duration_unit", "must be one of DAY, WEEK, MONTH, YEAR")
		return "", verr
	}
	return u, nil
}

// Plan represents one purchasable subscription tier.
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Duration     int             `json:"duration"`
	DurationUnit DurationUnit    `json:"duration_unit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PlanParams is the construction input of a plan. Identity is never part of it.
type PlanParams struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	Duration     int
	DurationUnit string
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates params and builds a plan without identity; the store assigns it.
func NewPlan(params PlanParams) (*Plan, error) {
	p, err := build(params)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RestorePlan rehydrates a stored record. The id is kept as is, the other fields are re-validated.
func RestorePlan(id string, params PlanParams, createdAt, updatedAt time.Time) (*Plan, error) {
	p, err := build(params)
	if strings.TrimSpace(id) == "" {
		verr, ok := err.(*domain.ValidationError)
		if !ok {
			verr = &domain.ValidationError{}
		}
		verr.Add("id", "is required")
		return nil, verr
	}
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}

func build(params PlanParams) (*Plan, error) {
	verr := &domain.ValidationError{}
	name := strings.TrimSpace(params.Name)
	desc := strings.TrimSpace(params.Description)
	if name == "" {
		verr.Add("name", "is required")
	}
	if desc == "" {
		verr.Add("description", "is required")
	}
	if params.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if params.Duration <= 0 {
		verr.Add("duration", "must be greater than zero")
	}
	unit, uerr := ParseDurationUnit(params.DurationUnit)
	if uerr != nil {
		verr.Fields = append(verr.Fields, uerr.(*domain.ValidationError).Fields...)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &Plan{
		Name:         name,
		Description:  desc,
		Price:        params.Price,
		Duration:     params.Duration,
		DurationUnit: unit,
	}, nil
}

// Validate re-applies the construction rules to an in-memory value.
func (p *Plan) Validate() error {
	if p == nil {
		verr := &domain.ValidationError{}
		verr.Add("plan", "is required")
		return verr
	}
	_, err := build(p.Params())
	return err
}

// Params returns the construction input that produces this plan.
func (p *Plan) Params() PlanParams {
	return PlanParams{
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Duration:     p.Duration,
		DurationUnit: string(p.DurationUnit),
	}
}

// Clone returns an independent copy.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Equal compares every stored field; decimals compare by value.
func (p *Plan) Equal(o *Plan) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.ID == o.ID &&
		p.Name == o.Name &&
		p.Description == o.Description &&
		p.Price.Equal(o.Price) &&
		p.Duration == o.Duration &&
		p.DurationUnit == o.DurationUnit &&
		p.CreatedAt.Equal(o.CreatedAt) &&
		p.UpdatedAt.Equal(o.UpdatedAt)
}

// StoreTime returns now in the precision every backend can round-trip.
func StoreTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
