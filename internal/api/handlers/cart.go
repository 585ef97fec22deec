package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/servicehubhq/cart-service/internal/api/middleware"
	"github.com/servicehubhq/cart-service/internal/errors"
	"github.com/servicehubhq/cart-service/internal/models"
	service "github.com/servicehubhq/cart-service/internal/services"
	"github.com/servicehubhq/cart-service/internal/utils"
	"github.com/servicehubhq/cart-service/internal/utils/response"
)

type CartHandler struct {
	cartService *service.CartService
	validator   *validator.Validate
}

func NewCartHandler(service *service.CartService) *CartHandler {
	return &CartHandler{
		cartService: service,
		validator:   validator.New(),
	}
}

// sessionFromRequest binds the request to a device cart. The device ID is
// minted by the storefront and identifies the snapshot; authentication is
// whatever the auth middleware verified.
func sessionFromRequest(r *http.Request) (models.Session, error) {

	deviceID := r.Header.Get("X-Device-ID")
	if deviceID == "" {
		return models.Session{}, errors.BadRequestError("X-Device-ID header is required")
	}

	_, authenticated := middleware.ClaimsFromContext(r.Context())

	return models.Session{DeviceID: deviceID, Authenticated: authenticated}, nil
}

func cartResponse(items []models.CartLineItem) models.CartResponse {
	return models.CartResponse{Items: items, Total: models.CartTotal(items)}
}

// GetCart loads the device cart, merging with the remote account cart for
// authenticated callers.
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sess, err := sessionFromRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		items, err := h.cartService.LoadCart(r.Context(), sess)
		if err != nil {
			logger.Error("Failed to load cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cartResponse(items))
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sess, err := sessionFromRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.AddItemRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, errors.BadRequestError("Invalid request body").WithError(err))
			return
		}

		if err := utils.ValidateStruct(h.validator, &req); err != nil {
			if validationErrs, ok := utils.AsValidationErrors(err); ok {
				response.ValidationError(w, validationErrs)
				return
			}

			response.Error(w, errors.ValidationError("Invalid input"))
			return
		}

		items, err := h.cartService.AddItem(r.Context(), sess, &req)
		if err != nil {
			logger.Error("Failed to add item to cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart",
			slog.String("product_id", req.ProductID),
			slog.String("device_id", sess.DeviceID))
		response.Success(w, http.StatusOK, cartResponse(items))
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sess, err := sessionFromRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateQuantityRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, errors.BadRequestError("Invalid request body").WithError(err))
			return
		}

		if err := utils.ValidateStruct(h.validator, &req); err != nil {
			if validationErrs, ok := utils.AsValidationErrors(err); ok {
				response.ValidationError(w, validationErrs)
				return
			}

			response.Error(w, errors.ValidationError("Invalid input"))
			return
		}

		items, err := h.cartService.UpdateQuantity(r.Context(), sess, &req)
		if err != nil {
			logger.Warn("Failed to update quantity", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cartResponse(items))
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sess, err := sessionFromRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.RemoveItemRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, errors.BadRequestError("Invalid request body").WithError(err))
			return
		}

		if err := utils.ValidateStruct(h.validator, &req); err != nil {
			if validationErrs, ok := utils.AsValidationErrors(err); ok {
				response.ValidationError(w, validationErrs)
				return
			}

			response.Error(w, errors.ValidationError("Invalid input"))
			return
		}

		items, err := h.cartService.RemoveItem(r.Context(), sess, &req)
		if err != nil {
			logger.Error("Failed to remove item", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cartResponse(items))
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sess, err := sessionFromRequest(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.cartService.ClearCart(r.Context(), sess); err != nil {
			logger.Error("Failed to clear cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared", slog.String("device_id", sess.DeviceID))
		response.Success(w, http.StatusOK, cartResponse([]models.CartLineItem{}))
	}
}
