package activities

import (
	"testing"

	"domain-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

// no simulated latency in tests
var testDelays = PaymentDelays{}

func testOrder(id, price string) models.Order {
	return models.Order{
		ID:     id,
		Domain: "meusite.com.br",
		Price:  price,
		Payment: models.PaymentDetails{
			CardName:   "ANA SILVA",
			CardNumber: "4111 1111 1111 1111",
			Expiry:     "12/29",
			CVC:        "123",
		},
	}
}

func TestAuthorizePayment(t *testing.T) {
	declined := testOrder("TEST-PAY-006", "49,99")
	declined.Payment.CardNumber = "4000 0000 0000 0002"

	tests := []struct {
		name           string
		order          models.Order
		wantErr        bool
		errorContains  string
		validateResult func(t *testing.T, authID string)
	}{
		{
			name:    "Success - Domain Price",
			order:   testOrder("TEST-PAY-001", "49,99"),
			wantErr: false,
			validateResult: func(t *testing.T, authID string) {
				assert.Contains(t, authID, "AUTH-TEST-PAY-")
			},
		},
		{
			name:          "Failure - Zero Amount",
			order:         testOrder("TEST-PAY-002", "0,00"),
			wantErr:       true,
			errorContains: "invalid payment amount",
		},
		{
			name:          "Failure - Malformed Price",
			order:         testOrder("TEST-PAY-003", "R$ 49"),
			wantErr:       true,
			errorContains: "invalid payment amount",
		},
		{
			name:          "Failure - Exceeds Authorization Limit",
			order:         testOrder("TEST-PAY-004", "10000,01"),
			wantErr:       true,
			errorContains: "exceeds authorization limit",
		},
		{
			name:    "Success - Maximum Valid Amount",
			order:   testOrder("TEST-PAY-005", "10000.00"),
			wantErr: false,
			validateResult: func(t *testing.T, authID string) {
				assert.Contains(t, authID, "AUTH-")
			},
		},
		{
			name:          "Failure - Declined Card",
			order:         declined,
			wantErr:       true,
			errorContains: "card declined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			paymentAct := NewPaymentActivities(testDelays)
			env.RegisterActivity(paymentAct.AuthorizePayment)

			val, err := env.ExecuteActivity(paymentAct.AuthorizePayment, tt.order)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)

			var authID string
			require.NoError(t, val.Get(&authID))
			if tt.validateResult != nil {
				tt.validateResult(t, authID)
			}
		})
	}
}

func TestCapturePayment(t *testing.T) {
	tests := []struct {
		name          string
		authID        string
		setupAuth     bool
		wantErr       bool
		errorContains string
	}{
		{
			name:      "Success - Valid Authorization",
			setupAuth: true,
		},
		{
			name:          "Failure - Empty Authorization ID",
			authID:        "",
			wantErr:       true,
			errorContains: "invalid authorization ID",
		},
		{
			name:   "Success - Any Non-Empty Authorization ID",
			authID: "ANY-AUTH-ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			paymentAct := NewPaymentActivities(testDelays)
			env.RegisterActivity(paymentAct.AuthorizePayment)
			env.RegisterActivity(paymentAct.CapturePayment)

			order := testOrder("TEST-PAY-010", "49,99")
			authID := tt.authID
			if tt.setupAuth {
				val, err := env.ExecuteActivity(paymentAct.AuthorizePayment, order)
				require.NoError(t, err)
				require.NoError(t, val.Get(&authID))
			}

			val, err := env.ExecuteActivity(paymentAct.CapturePayment, order, authID)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)

			var txnID string
			require.NoError(t, val.Get(&txnID))
			assert.Contains(t, txnID, "TXN-TEST-PAY")
		})
	}
}

func TestVoidAuthorization(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	paymentAct := NewPaymentActivities(testDelays)
	env.RegisterActivity(paymentAct.VoidAuthorization)

	_, err := env.ExecuteActivity(paymentAct.VoidAuthorization, "AUTH-TEST-PAY-1")

	assert.NoError(t, err)
}
