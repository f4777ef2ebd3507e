package ledger

import (
	"context"
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// Ledger records the settlement obligations of won auctions and their
// completion. Each auction owes at most one payment.
type Ledger struct {
	repo  repository.PaymentStore
	clock utils.Clock
}

// NewLedger creates a new Ledger instance
func NewLedger(repo repository.PaymentStore, clock utils.Clock) *Ledger {
	return &Ledger{
		repo:  repo,
		clock: clock,
	}
}

// RecordObligation creates the unpaid payment of an auction. A second
// call for the same auction fails with ErrPaymentExists.
func (l *Ledger) RecordObligation(ctx context.Context, auctionID, payerID string, amount decimal.Decimal) (models.Payment, error) {
	p, err := models.NewPayment(utils.GenerateID(), auctionID, payerID, amount, l.clock.Now())
	if err != nil {
		return models.Payment{}, fmt.Errorf("ledger: %w", err)
	}

	if err := l.repo.CreatePayment(ctx, p); err != nil {
		return models.Payment{}, fmt.Errorf("ledger: failed to record obligation for auction %s: %w", auctionID, err)
	}

	utils.Info("ledger: obligation recorded", map[string]any{
		"payment_id": p.PaymentID,
		"auction_id": auctionID,
		"payer_id":   payerID,
		"amount":     amount.StringFixed(2),
	})
	return p, nil
}

// MarkPaid completes a payment exactly once. An empty payerID skips the
// payer check.
func (l *Ledger) MarkPaid(ctx context.Context, paymentID, payerID string, method models.PaymentMethod) (models.Payment, error) {
	if paymentID == "" {
		return models.Payment{}, fmt.Errorf("ledger: %w - empty payment ID", auctionerrors.ErrInvalidPayment)
	}
	if _, err := models.ParsePaymentMethod(string(method)); err != nil {
		return models.Payment{}, fmt.Errorf("ledger: %w", err)
	}

	p, err := l.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("ledger: failed to get payment %s: %w", paymentID, err)
	}
	if payerID != "" && p.PayerID != payerID {
		return models.Payment{}, fmt.Errorf("ledger: payment %s: %w", paymentID, auctionerrors.ErrNotPayer)
	}
	if p.IsCompleted {
		return models.Payment{}, fmt.Errorf("ledger: payment %s: %w", paymentID, auctionerrors.ErrAlreadyPaid)
	}

	paid, err := l.repo.CompletePayment(ctx, paymentID, method, l.clock.Now())
	if err != nil {
		return models.Payment{}, fmt.Errorf("ledger: failed to complete payment %s: %w", paymentID, err)
	}

	utils.Info("ledger: payment completed", map[string]any{
		"payment_id": paymentID,
		"auction_id": paid.AuctionID,
		"method":     string(method),
	})
	return paid, nil
}

// GetPayment returns a payment by id
func (l *Ledger) GetPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	if paymentID == "" {
		return models.Payment{}, fmt.Errorf("ledger: %w - empty payment ID", auctionerrors.ErrInvalidPayment)
	}

	p, err := l.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("ledger: failed to get payment %s: %w", paymentID, err)
	}
	return p, nil
}

// GetPaymentForAuction returns the obligation of an auction
func (l *Ledger) GetPaymentForAuction(ctx context.Context, auctionID string) (models.Payment, error) {
	if auctionID == "" {
		return models.Payment{}, fmt.Errorf("ledger: %w - empty auction ID", auctionerrors.ErrInvalidPayment)
	}

	p, err := l.repo.GetPaymentByAuction(ctx, auctionID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("ledger: failed to get payment for auction %s: %w", auctionID, err)
	}
	return p, nil
}

// ListPaymentsForUser returns the payments a user owes or has made, newest first
func (l *Ledger) ListPaymentsForUser(ctx context.Context, userID string) ([]models.Payment, error) {
	if userID == "" {
		return nil, fmt.Errorf("ledger: %w - empty user ID", auctionerrors.ErrInvalidPayment)
	}

	payments, err := l.repo.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to list payments for user %s: %w", userID, err)
	}
	return payments, nil
}
