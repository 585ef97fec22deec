package models

type AccessType string

const (
	AccessShared  AccessType = "shared"
	AccessPrivate AccessType = "private"
)

type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
)

// CartLineItem is one entry in a cart: a chosen product, plan variant and
// quantity. Price is the unit price in the smallest currency unit,
// snapshotted at add-time — it is never re-fetched from the catalog.
type CartLineItem struct {
	ProductID     string        `json:"productId"`
	ProductName   string        `json:"productName"`
	SelectedPlan  string        `json:"selectedPlan"`
	AccessType    AccessType    `json:"accessType"`
	BillingPeriod BillingPeriod `json:"billingPeriod"`
	Price         int64         `json:"price"`
	Quantity      int           `json:"quantity"`
	ImageURL      string        `json:"imageUrl"`
}

// LineKey identifies a line item within a cart. No two items in a cart may
// share the same key.
type LineKey struct {
	ProductID    string
	SelectedPlan string
}

func (i CartLineItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, SelectedPlan: i.SelectedPlan}
}

// Valid reports whether the item carries the fields required to identify it.
// Malformed items are dropped during merge rather than failing the merge.
func (i CartLineItem) Valid() bool {
	return i.ProductID != "" && i.SelectedPlan != ""
}

// CartTotal sums price × quantity over the items.
func CartTotal(items []CartLineItem) int64 {

	var total int64

	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}

	return total
}

type CartResponse struct {
	Items []CartLineItem `json:"items"`
	Total int64          `json:"total"`
}

type AddItemRequest struct {
	ProductID     string        `json:"productId"     validate:"required"`
	ProductName   string        `json:"productName"   validate:"required,max=200"`
	AccessType    AccessType    `json:"accessType"    validate:"required,oneof=shared private"`
	BillingPeriod BillingPeriod `json:"billingPeriod" validate:"required,oneof=monthly yearly"`
	Quantity      int           `json:"quantity"      validate:"required,min=1"`
	ImageURL      string        `json:"imageUrl"      validate:"omitempty,max=2048"`
	Prices        PriceSnapshot `json:"prices"`
}

type UpdateQuantityRequest struct {
	ProductID    string `json:"productId"    validate:"required"`
	SelectedPlan string `json:"selectedPlan" validate:"required"`
	Delta        int    `json:"delta"        validate:"required"`
}

type RemoveItemRequest struct {
	ProductID    string `json:"productId"    validate:"required"`
	SelectedPlan string `json:"selectedPlan" validate:"required"`
}
