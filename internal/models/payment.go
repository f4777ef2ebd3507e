package models

import (
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a won auction was paid
type PaymentMethod string

const (
	MethodCredit PaymentMethod = "credit"
	MethodDebit  PaymentMethod = "debit"
	MethodPayPal PaymentMethod = "paypal"
	MethodBank   PaymentMethod = "bank"
)

// ParsePaymentMethod validates a client supplied method
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodCredit, MethodDebit, MethodPayPal, MethodBank:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", auctionerrors.ErrInvalidPayment, s)
}

// Payment is the settlement obligation of a won auction. It is created
// unpaid by the lifecycle engine and completed exactly once.
type Payment struct {
	PaymentID   string          `json:"payment_id" db:"id"`
	AuctionID   string          `json:"auction_id" db:"auction_id"`
	PayerID     string          `json:"payer_id" db:"payer_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Method      PaymentMethod   `json:"method,omitempty" db:"method"`
	IsCompleted bool            `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
}

// NewPayment builds an unpaid obligation
func NewPayment(id, auctionID, payerID string, amount decimal.Decimal, now time.Time) (Payment, error) {
	if id == "" || auctionID == "" || payerID == "" {
		return Payment{}, fmt.Errorf("%w: missing payment, auction or payer id", auctionerrors.ErrInvalidPayment)
	}
	if !ValidMoney(amount) {
		return Payment{}, fmt.Errorf("%w: amount must be positive with at most two decimals", auctionerrors.ErrInvalidPayment)
	}
	return Payment{
		PaymentID: id,
		AuctionID: auctionID,
		PayerID:   payerID,
		Amount:    amount,
		CreatedAt: now,
	}, nil
}
