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

type PricingHandler struct {
	cartService *service.CartService
	validator   *validator.Validate
}

func NewPricingHandler(service *service.CartService) *PricingHandler {
	return &PricingHandler{
		cartService: service,
		validator:   validator.New(),
	}
}

// Quote resolves an (access type, billing period) pair against a product's
// price snapshot. Stateless: no cart is touched.
func (h *PricingHandler) Quote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.QuoteRequest
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

		selection, err := h.cartService.Quote(&req)
		if err != nil {
			logger.Warn("Failed to resolve price quote", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, selection)
	}
}
