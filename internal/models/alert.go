package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertCondition represents the comparison an alert makes against a price.
type AlertCondition string

const (
	// AlertConditionAbove holds when the price is at or above the target.
	AlertConditionAbove AlertCondition = "above"
	// AlertConditionBelow holds when the price is at or below the target.
	AlertConditionBelow AlertCondition = "below"
)

// Valid reports whether c is a known condition.
func (c AlertCondition) Valid() bool {
	return c == AlertConditionAbove || c == AlertConditionBelow
}

// Alert represents a price alert.
type Alert struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Asset     string          `json:"asset"`
	Price     decimal.Decimal `json:"price"`
	Condition AlertCondition  `json:"condition"`
	CreatedAt time.Time       `json:"created_at"`
}

// Matches reports whether price satisfies the alert condition.
func (a Alert) Matches(price decimal.Decimal) bool {
	switch a.Condition {
	case AlertConditionAbove:
		return price.GreaterThanOrEqual(a.Price)
	case AlertConditionBelow:
		return price.LessThanOrEqual(a.Price)
	}
	return false
}
