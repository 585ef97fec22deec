package models

// PriceSnapshot carries the four independent price variants a product
// exposes. Field names mirror the catalog payload, including its historical
// asymmetry between the shared and private variants. A nil field means the
// variant is not offered; its effective price is 0.
type PriceSnapshot struct {
	PriceSharedMonthly  *int64 `json:"priceSharedMonthly,omitempty"`
	PriceSharedYearly   *int64 `json:"priceSharedYearly,omitempty"`
	PrivatePriceMonthly *int64 `json:"privatePriceMonthly,omitempty"`
	PrivatePriceYearly  *int64 `json:"privatePriceYearly,omitempty"`
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	PriceSnapshot
}

type QuoteRequest struct {
	AccessType    AccessType    `json:"accessType"    validate:"required,oneof=shared private"`
	BillingPeriod BillingPeriod `json:"billingPeriod" validate:"required,oneof=monthly yearly"`
	Prices        PriceSnapshot `json:"prices"`
}
