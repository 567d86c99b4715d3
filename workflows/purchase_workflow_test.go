package workflows

import (
	"errors"
	"testing"

	"domain-storefront/activities"
	"domain-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func purchaseOrder(card string) models.Order {
	return models.Order{
		ID:     "7f3c2a10-0000-4000-8000-000000000001",
		Domain: "meusite.com.br",
		Price:  "49,99",
		Payment: models.PaymentDetails{
			CardName:   "ANA SILVA",
			CardNumber: card,
			Expiry:     "12/29",
			CVC:        "123",
		},
	}
}

func TestPurchaseWorkflow(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterActivity(activities.NewPaymentActivities(activities.PaymentDelays{}))

		env.ExecuteWorkflow(PurchaseWorkflow, purchaseOrder("4111 1111 1111 1111"))

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var receipt models.Receipt
		require.NoError(t, env.GetWorkflowResult(&receipt))
		assert.Equal(t, "7f3c2a10-0000-4000-8000-000000000001", receipt.OrderID)
		assert.Equal(t, "meusite.com.br", receipt.Domain)
		assert.Contains(t, receipt.AuthorizationID, "AUTH-7f3c2a10")
		assert.Contains(t, receipt.TransactionID, "TXN-7f3c2a10")
	})

	t.Run("Declined Card", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		env.RegisterActivity(activities.NewPaymentActivities(activities.PaymentDelays{}))

		env.ExecuteWorkflow(PurchaseWorkflow, purchaseOrder(activities.DeclinedCardNumber))

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "card declined")
	})

	t.Run("Capture Failure Voids Authorization", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()
		paymentAct := activities.NewPaymentActivities(activities.PaymentDelays{})
		env.RegisterActivity(paymentAct)

		env.OnActivity(paymentAct.CapturePayment, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("gateway unavailable"))
		env.OnActivity(paymentAct.VoidAuthorization, mock.Anything, mock.Anything).
			Return(nil).Once()

		env.ExecuteWorkflow(PurchaseWorkflow, purchaseOrder("4111 1111 1111 1111"))

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment capture failed")
		env.AssertExpectations(t)
	})
}
