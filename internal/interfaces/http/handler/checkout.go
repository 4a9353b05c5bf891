package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	checkoutapp "github.com/KazuakiWatanabe/scancheckout-oss/internal/application/checkout"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

// IdempotencyKeyHeader carries the optional client submission key that
// guards against duplicate delivery of the same checkout.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// CheckoutHandler exposes the checkout entry point.
type CheckoutHandler struct {
	BaseHandler
	service *checkoutapp.Service
}

// NewCheckoutHandler creates a CheckoutHandler.
func NewCheckoutHandler(service *checkoutapp.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes registers the checkout routes.
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pos := rg.Group("/pos")
	pos.POST("/checkout", h.Checkout)
}

// CheckoutLineIn is one item position of the checkout request body.
type CheckoutLineIn struct {
	SKU       string   `json:"sku" binding:"required"`
	Qty       float64  `json:"qty" binding:"required,gt=0"`
	PriceUnit *float64 `json:"price_unit" binding:"omitempty,gt=0"`
}

// CheckoutIn is the request body of POST /pos/checkout.
type CheckoutIn struct {
	StoreID    string           `json:"store_id" binding:"required"`
	OperatorID string           `json:"operator_id"`
	Mode       string           `json:"mode" binding:"omitempty,oneof=sale pos"`
	Lines      []CheckoutLineIn `json:"lines" binding:"required,min=1,dive"`
	Note       string           `json:"note"`
	PartnerID  *int64           `json:"partner_id"`
}

// CheckoutOut is the fixed response contract. Every outcome, success or
// failure, uses exactly this shape.
type CheckoutOut struct {
	OK       bool    `json:"ok"`
	Target   string  `json:"target"`
	RecordID *int64  `json:"record_id"`
	Message  *string `json:"message"`
}

// Checkout pushes one scan-based checkout into the remote order
// backend: draft sale order creation followed by confirmation.
//
// Status mapping: 200 success, 400 rejected before any remote call,
// 409 duplicate idempotency key, 502 remote-originating failure,
// 500 anything unexpected.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var body CheckoutIn
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, failureOut(bindingErrorMessage(err)))
		return
	}
	// Annotates the request span and log line.
	c.Set("store_id", body.StoreID)

	req, err := body.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, failureOut(err.Error()))
		return
	}

	result, outcome := h.service.Checkout(c.Request.Context(), req, c.GetHeader(IdempotencyKeyHeader))
	c.JSON(statusFor(outcome), CheckoutOut{
		OK:       result.OK,
		Target:   result.Target,
		RecordID: result.RecordID,
		Message:  result.Message,
	})
}

// toDomain converts the bound body into the domain request, re-running
// the domain-level validation on each line.
func (b *CheckoutIn) toDomain() (checkout.Request, error) {
	mode := checkout.Mode(b.Mode)
	if b.Mode == "" {
		mode = checkout.ModeSale
	}

	lines := make([]checkout.Line, 0, len(b.Lines))
	for _, in := range b.Lines {
		var unitPrice *decimal.Decimal
		if in.PriceUnit != nil {
			p := decimal.NewFromFloat(*in.PriceUnit)
			unitPrice = &p
		}
		line, err := checkout.NewLine(in.SKU, decimal.NewFromFloat(in.Qty), unitPrice)
		if err != nil {
			return checkout.Request{}, err
		}
		lines = append(lines, line)
	}

	return checkout.Request{
		StoreID:    b.StoreID,
		OperatorID: b.OperatorID,
		Mode:       mode,
		Lines:      lines,
		Note:       b.Note,
		PartnerID:  b.PartnerID,
	}, nil
}

func statusFor(outcome checkoutapp.Outcome) int {
	switch outcome {
	case checkoutapp.OutcomeSuccess:
		return http.StatusOK
	case checkoutapp.OutcomeRejected:
		return http.StatusBadRequest
	case checkoutapp.OutcomeDuplicate:
		return http.StatusConflict
	case checkoutapp.OutcomeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func failureOut(message string) CheckoutOut {
	return CheckoutOut{
		OK:      false,
		Target:  checkout.TargetSaleOrder,
		Message: &message,
	}
}

// bindingErrorMessage turns a gin binding error into a short message
// naming the first offending field instead of dumping the whole
// validator chain.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("field '%s' is required", fe.Field())
		case "gt":
			return fmt.Sprintf("field '%s' must be greater than %s", fe.Field(), fe.Param())
		case "min":
			return fmt.Sprintf("field '%s' needs at least %s element(s)", fe.Field(), fe.Param())
		case "oneof":
			return fmt.Sprintf("field '%s' must be one of: %s", fe.Field(), fe.Param())
		default:
			return fmt.Sprintf("field '%s' is invalid", fe.Field())
		}
	}
	return "invalid request body"
}
