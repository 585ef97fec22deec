package service

import (
	"context"

	"github.com/microcosm-cc/bluemonday"
	"github.com/servicehubhq/cart-service/internal/cart"
	"github.com/servicehubhq/cart-service/internal/models"
	"github.com/servicehubhq/cart-service/internal/pricing"
)

// CartService sits between the HTTP handlers and the cart store. It
// resolves plan prices at add-time and scrubs denormalized display fields
// before they enter a snapshot.
type CartService struct {
	store     *cart.Store
	sanitizer *bluemonday.Policy
}

func NewCartService(store *cart.Store) *CartService {
	return &CartService{
		store:     store,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *CartService) LoadCart(ctx context.Context, sess models.Session) ([]models.CartLineItem, error) {
	return s.store.Load(ctx, sess)
}

// AddItem resolves the selected plan and unit price from the product's
// price snapshot, then inserts the line item. The price is frozen at
// add-time; later catalog changes do not touch existing carts.
func (s *CartService) AddItem(ctx context.Context, sess models.Session, req *models.AddItemRequest) ([]models.CartLineItem, error) {

	selection, err := pricing.Select(req.Prices, req.AccessType, req.BillingPeriod)
	if err != nil {
		return nil, err
	}

	item := models.CartLineItem{
		ProductID:     req.ProductID,
		ProductName:   s.sanitizer.Sanitize(req.ProductName),
		SelectedPlan:  selection.SelectedPlan,
		AccessType:    req.AccessType,
		BillingPeriod: req.BillingPeriod,
		Price:         selection.Price,
		Quantity:      req.Quantity,
		ImageURL:      s.sanitizer.Sanitize(req.ImageURL),
	}

	return s.store.AddItem(ctx, sess, item)
}

func (s *CartService) UpdateQuantity(ctx context.Context, sess models.Session, req *models.UpdateQuantityRequest) ([]models.CartLineItem, error) {
	return s.store.UpdateQuantity(ctx, sess, req.ProductID, req.SelectedPlan, req.Delta)
}

func (s *CartService) RemoveItem(ctx context.Context, sess models.Session, req *models.RemoveItemRequest) ([]models.CartLineItem, error) {
	return s.store.RemoveItem(ctx, sess, req.ProductID, req.SelectedPlan)
}

func (s *CartService) ClearCart(ctx context.Context, sess models.Session) error {
	return s.store.Clear(ctx, sess)
}

// Quote evaluates a plan variant against a price snapshot without touching
// any cart.
func (s *CartService) Quote(req *models.QuoteRequest) (pricing.Selection, error) {
	return pricing.Select(req.Prices, req.AccessType, req.BillingPeriod)
}
