// Package fee computes what a profile owes for an event.
package fee

import (
	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/profile"
)

// DiscountRate is the reduction applied to discounted profiles.
var DiscountRate = decimal.NewFromFloat(0.25)

var fullRate = decimal.NewFromInt(1)

// Input carries everything the calculation depends on.
type Input struct {
	Base          decimal.Decimal
	IsStudent     bool
	IsChild       bool
	ProfileGroups []string
	EventGroups   []string
}

// InputFor builds an Input from an event and a profile.
func InputFor(e event.Event, p profile.Profile) Input {
	return Input{
		Base:          e.Fee,
		IsStudent:     p.IsStudent(),
		IsChild:       p.IsChild(),
		ProfileGroups: p.Groups,
		EventGroups:   e.TargetGroups,
	}
}

// Discounted reports whether the single 25% discount applies.
func Discounted(in Input) bool {
	if in.IsStudent {
		return true
	}
	if in.IsChild && anyYouth(in.ProfileGroups) {
		return true
	}
	return anyYouth(in.EventGroups)
}

// Calculate returns the amount due rounded half-up to 2 decimal places.
// PRE: none
// POST: result >= 0; identical inputs give identical results
func Calculate(in Input) decimal.Decimal {
	if !in.Base.IsPositive() {
		return decimal.Zero
	}
	amount := in.Base
	if Discounted(in) {
		amount = amount.Mul(fullRate.Sub(DiscountRate))
	}
	amount = amount.Round(2)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// AmountDue returns the admin override when set, else the computed fee.
func AmountDue(override *decimal.Decimal, in Input) decimal.Decimal {
	if override != nil {
		if override.IsNegative() {
			return decimal.Zero
		}
		return override.Round(2)
	}
	return Calculate(in)
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func anyYouth(groups []string) bool {
	for _, g := range groups {
		if profile.IsYouthGroup(g) {
			return true
		}
	}
	return false
}
