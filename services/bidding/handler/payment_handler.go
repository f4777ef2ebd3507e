package handler

import (
	"context"
	"net/http"

	"auction-house/internal/models"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type PaymentServiceInterface interface {
	GetPayment(ctx context.Context, paymentID string) (models.Payment, error)
	MarkPaid(ctx context.Context, paymentID, payerID string, method models.PaymentMethod) (models.Payment, error)
	ListPaymentsForUser(ctx context.Context, userID string) ([]models.Payment, error)
}

type PaymentHandler struct {
	service PaymentServiceInterface
}

func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// GetPaymentHandler handles GET /payments/:payment_id
func (h *PaymentHandler) GetPaymentHandler(c *gin.Context) {
	paymentID := c.Param("payment_id")
	p, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		helpers.RespondError(c, "GetPaymentHandler", err, map[string]any{"payment_id": paymentID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewPaymentResponse(p), "payment retrieved successfully")
	helpers.LogSuccess("GetPaymentHandler", "payment retrieved successfully", map[string]any{"payment_id": paymentID})
}

// PayHandler handles POST /payments/:payment_id/pay
func (h *PaymentHandler) PayHandler(c *gin.Context) {
	paymentID := c.Param("payment_id")
	payerID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "PayHandler", err, map[string]any{"payment_id": paymentID})
		return
	}

	var req helpers.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PayHandler", err)
		return
	}
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		helpers.RespondError(c, "PayHandler", err, map[string]any{"payment_id": paymentID})
		return
	}

	p, err := h.service.MarkPaid(c.Request.Context(), paymentID, payerID, method)
	if err != nil {
		helpers.RespondError(c, "PayHandler", err, map[string]any{
			"payment_id": paymentID,
			"payer_id":   payerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewPaymentResponse(p), "payment completed successfully")
	helpers.LogSuccess("PayHandler", "payment completed successfully", map[string]any{
		"payment_id": paymentID,
		"payer_id":   payerID,
		"method":     string(method),
	})
}

// ListPaymentsByUserHandler handles GET /users/:user_id/payments
func (h *PaymentHandler) ListPaymentsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	payments, err := h.service.ListPaymentsForUser(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "ListPaymentsByUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewPaymentResponses(payments), "payments retrieved successfully")
	helpers.LogSuccess("ListPaymentsByUserHandler", "payments retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(payments),
	})
}
