package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"secondhand/internal/apperr"
	"secondhand/internal/shipping"
)

type shippingForm struct {
	Origin      string `form:"origin" binding:"required"`
	Destination string `form:"destination" binding:"required"`
	Weight      int    `form:"weight" binding:"required,gt=0"`
	Courier     string `form:"courier" binding:"omitempty,oneof=jne pos tiki"`
}

func (h *Handler) shippingCost(c *gin.Context) {
	const op = "handlers.shippingCost"
	log := h.opLog(c, op)

	var form shippingForm
	if err := c.ShouldBind(&form); err != nil {
		failJSON(c, log, apperr.Validation(bindingMessage(err)))
		return
	}
	if form.Courier == "" {
		form.Courier = shipping.DefaultCourier
	}

	costs, err := h.shipping.Cost(c.Request.Context(), shipping.Request{
		Origin:      form.Origin,
		Destination: form.Destination,
		Weight:      form.Weight,
		Courier:     form.Courier,
	})
	if err != nil {
		var perr *shipping.ProviderError
		if errors.As(err, &perr) {
			log.Error("shipping provider rejected request", slog.Int("status", perr.Status), slog.String("body", perr.Body))
		}
		failJSON(c, log, apperr.Upstream(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"costs": costs})
}

// bindingMessage turns validator errors into a short client message.
func bindingMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return "invalid request body"
	}
	e := errs[0]
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " is not valid"
	}
}
