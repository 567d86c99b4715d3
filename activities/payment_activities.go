package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"domain-storefront/models"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

const (
	// AuthorizationLimitCents is the largest amount the simulated gateway authorizes
	AuthorizationLimitCents = 1_000_000

	// DeclinedCardNumber always fails authorization, for exercising the
	// declined-purchase path
	DeclinedCardNumber = "4000000000000002"

	ErrTypeCardDeclined  = "CardDeclined"
	ErrTypeInvalidAmount = "InvalidAmount"
)

// PaymentDelays simulates gateway latency per call
type PaymentDelays struct {
	Authorize time.Duration
	Capture   time.Duration
	Void      time.Duration
}

// DefaultPaymentDelays adds up to the 1.5s confirmation the storefront shows
var DefaultPaymentDelays = PaymentDelays{
	Authorize: time.Second,
	Capture:   500 * time.Millisecond,
	Void:      500 * time.Millisecond,
}

// PaymentActivities contains all payment-related activities
type PaymentActivities struct {
	delays PaymentDelays
}

// NewPaymentActivities creates a new PaymentActivities instance
func NewPaymentActivities(delays PaymentDelays) *PaymentActivities {
	return &PaymentActivities{delays: delays}
}

// AuthorizePayment authorizes the domain price on the order's card
func (p *PaymentActivities) AuthorizePayment(ctx context.Context, order models.Order) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Authorizing payment", "order_id", order.ID, "domain", order.Domain, "price", order.Price)

	if err := wait(ctx, p.delays.Authorize); err != nil {
		return "", err
	}

	activity.RecordHeartbeat(ctx, "authorizing payment")

	cents, err := models.ParsePrice(order.Price)
	if err != nil || cents <= 0 {
		return "", temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("invalid payment amount: %q", order.Price), ErrTypeInvalidAmount, err)
	}
	if cents > AuthorizationLimitCents {
		return "", temporal.NewNonRetryableApplicationError(
			"payment amount exceeds authorization limit", ErrTypeInvalidAmount, nil)
	}
	if strings.ReplaceAll(order.Payment.CardNumber, " ", "") == DeclinedCardNumber {
		return "", temporal.NewNonRetryableApplicationError("card declined", ErrTypeCardDeclined, nil)
	}

	info := activity.GetInfo(ctx)
	authorizationID := fmt.Sprintf("AUTH-%s-%d", shortID(order.ID), info.Attempt)

	logger.Info("Payment authorized successfully", "order_id", order.ID, "authorization_id", authorizationID)
	return authorizationID, nil
}

// CapturePayment captures a previously authorized payment
func (p *PaymentActivities) CapturePayment(ctx context.Context, order models.Order, authorizationID string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Capturing payment", "order_id", order.ID, "authorization_id", authorizationID)

	if err := wait(ctx, p.delays.Capture); err != nil {
		return "", err
	}

	activity.RecordHeartbeat(ctx, "capturing payment")

	if authorizationID == "" {
		return "", fmt.Errorf("invalid authorization ID")
	}

	info := activity.GetInfo(ctx)
	transactionID := fmt.Sprintf("TXN-%s-%d", shortID(order.ID), info.Attempt)

	logger.Info("Payment captured successfully", "order_id", order.ID, "transaction_id", transactionID)
	return transactionID, nil
}

// VoidAuthorization releases an authorization that will not be captured
func (p *PaymentActivities) VoidAuthorization(ctx context.Context, authorizationID string) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Voiding authorization", "authorization_id", authorizationID)

	if err := wait(ctx, p.delays.Void); err != nil {
		return err
	}

	logger.Info("Authorization voided successfully", "authorization_id", authorizationID)
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
