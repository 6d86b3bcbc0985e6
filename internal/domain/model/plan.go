package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingInterval is the recurrence of a plan's price
type BillingInterval string

const (
	IntervalDay   BillingInterval = "day"
	IntervalWeek  BillingInterval = "week"
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

// Valid reports whether the interval is one the provider can bill.
func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Plan is one immutable version of an author's subscription offer.
// A new version of the same ID supersedes the previous active one.
type Plan struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Version         int             `gorm:"primaryKey;autoIncrement:false" json:"version"`
	AuthorID        string          `gorm:"size:64;not null;index" json:"author_id"`
	Name            string          `gorm:"size:200;not null" json:"name"`
	Price           int64           `gorm:"not null" json:"price"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Interval        BillingInterval `gorm:"size:10;not null" json:"interval"`
	RevenueShare    decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"revenue_share"`
	ProviderPriceID *string         `gorm:"column:provider_price_id;size:100" json:"provider_price_id,omitempty"`
	Active          bool            `gorm:"not null;index" json:"active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	RetiredAt       *time.Time      `json:"retired_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Plan) TableName() string {
	return "plans"
}

// Credit returns the author's share of amount, rounded down to a whole minor unit.
func (p *Plan) Credit(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(p.RevenueShare).Floor().IntPart()
}

// PlanSpec describes a plan to register. PlanID set means a new version
// of an existing plan.
type PlanSpec struct {
	PlanID          *uuid.UUID      `json:"plan_id,omitempty"`
	AuthorID        string          `json:"author_id" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=200"`
	Price           int64           `json:"price" validate:"gt=0"`
	Currency        string          `json:"currency" validate:"required,len=3"`
	Interval        BillingInterval `json:"interval" validate:"required,oneof=day week month year"`
	RevenueShare    decimal.Decimal `json:"revenue_share"`
	ProviderPriceID *string         `json:"provider_price_id,omitempty" validate:"omitempty,max=100"`
}
