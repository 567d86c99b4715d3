package workflows

import (
	"fmt"
	"time"

	"domain-storefront/activities"
	"domain-storefront/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	PurchaseWorkflowName = "PurchaseWorkflow"
)

// PurchaseWorkflow is a child workflow that charges the order's card for
// the domain: authorize, then capture, voiding the authorization when the
// capture fails.
func PurchaseWorkflow(ctx workflow.Context, order models.Order) (models.Receipt, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("PurchaseWorkflow started", "order_id", order.ID, "domain", order.Domain, "price", order.Price)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 20 * time.Second,
		HeartbeatTimeout:    5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var paymentAct *activities.PaymentActivities

	// Step 1: Authorize Payment
	var authorizationID string
	err := workflow.ExecuteActivity(ctx, paymentAct.AuthorizePayment, order).Get(ctx, &authorizationID)
	if err != nil {
		logger.Error("Payment authorization failed", "order_id", order.ID, "error", err)
		return models.Receipt{}, fmt.Errorf("payment authorization failed: %w", err)
	}

	logger.Info("Payment authorized", "order_id", order.ID, "authorization_id", authorizationID)

	// Step 2: Capture Payment
	var transactionID string
	err = workflow.ExecuteActivity(ctx, paymentAct.CapturePayment, order, authorizationID).Get(ctx, &transactionID)
	if err != nil {
		logger.Error("Payment capture failed", "order_id", order.ID, "error", err)

		voidCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 10 * time.Second,
		})
		if voidErr := workflow.ExecuteActivity(voidCtx, paymentAct.VoidAuthorization, authorizationID).Get(ctx, nil); voidErr != nil {
			logger.Error("Failed to void authorization", "authorization_id", authorizationID, "error", voidErr)
		}

		return models.Receipt{}, fmt.Errorf("payment capture failed: %w", err)
	}

	logger.Info("Purchase completed", "order_id", order.ID, "transaction_id", transactionID)

	return models.Receipt{
		OrderID:         order.ID,
		Domain:          order.Domain,
		Price:           order.Price,
		AuthorizationID: authorizationID,
		TransactionID:   transactionID,
	}, nil
}
