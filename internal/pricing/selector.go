// Package pricing maps a product's price variants to a concrete line-item
// price. Selection is a pure lookup: the four price fields are opaque,
// pre-computed values owned by the catalog, and no discounting, rounding or
// currency conversion happens here.
package pricing

import (
	"fmt"

	"github.com/servicehubhq/cart-service/internal/errors"
	"github.com/servicehubhq/cart-service/internal/models"
)

// Selection is the result of resolving an (access type, billing period)
// pair against a product's price snapshot.
type Selection struct {
	SelectedPlan string `json:"selectedPlan"`
	Price        int64  `json:"price"`
}

// PlanKey builds the canonical composite plan key: the access type
// concatenated with the capitalized billing period, e.g. "sharedMonthly".
func PlanKey(access models.AccessType, period models.BillingPeriod) (string, error) {

	switch access {
	case models.AccessShared, models.AccessPrivate:
	default:
		return "", errors.ValidationError(fmt.Sprintf("Unknown access type %q", access))
	}

	switch period {
	case models.BillingMonthly:
		return string(access) + "Monthly", nil
	case models.BillingYearly:
		return string(access) + "Yearly", nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("Unknown billing period %q", period))
	}
}

// Select resolves the unit price for the given plan variant. An absent price
// field yields 0; whether 0 renders as "N/A" is the caller's concern.
func Select(prices models.PriceSnapshot, access models.AccessType, period models.BillingPeriod) (Selection, error) {

	plan, err := PlanKey(access, period)
	if err != nil {
		return Selection{}, err
	}

	var field *int64

	switch {
	case access == models.AccessShared && period == models.BillingMonthly:
		field = prices.PriceSharedMonthly
	case access == models.AccessShared && period == models.BillingYearly:
		field = prices.PriceSharedYearly
	case access == models.AccessPrivate && period == models.BillingMonthly:
		field = prices.PrivatePriceMonthly
	case access == models.AccessPrivate && period == models.BillingYearly:
		field = prices.PrivatePriceYearly
	}

	selection := Selection{SelectedPlan: plan}

	if field != nil {
		selection.Price = *field
	}

	return selection, nil
}
