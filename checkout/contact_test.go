package checkout

import (
	"testing"

	"domain-storefront/logging"
	"domain-storefront/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestContactForm(t *testing.T) {
	t.Run("Restore Prefills", func(t *testing.T) {
		form := NewContactForm(&fakeStore{}, logging.NewTemporalLogger(zaptest.NewLogger(t)))

		form.Restore("ana@x.com")

		assert.Equal(t, "ana@x.com", form.State().Email)
	})

	t.Run("Email Saved As Typed", func(t *testing.T) {
		store := &fakeStore{}
		form := NewContactForm(store, logging.NewTemporalLogger(zaptest.NewLogger(t)))

		require.NoError(t, form.SetEmail("ana@"))

		assert.Equal(t, "ana@", store.contact)
		assert.Equal(t, "ana@", form.Email())
	})

	t.Run("Invalid Submit Shows Error", func(t *testing.T) {
		form := NewContactForm(&fakeStore{}, logging.NewTemporalLogger(zaptest.NewLogger(t)))
		require.NoError(t, form.SetEmail("ana@"))

		assert.False(t, form.Submit())

		state := form.State()
		assert.Equal(t, validation.MsgContactEmail, state.Error)
		assert.Empty(t, state.Message)
		assert.Equal(t, "ana@", state.Email)

		require.NoError(t, form.SetEmail("ana@x"))
		assert.Empty(t, form.State().Error)
	})

	t.Run("Valid Submit Clears Field Not Storage", func(t *testing.T) {
		store := &fakeStore{}
		form := NewContactForm(store, logging.NewTemporalLogger(zaptest.NewLogger(t)))
		require.NoError(t, form.SetEmail("ana@x.com"))

		assert.True(t, form.Submit())

		state := form.State()
		assert.Empty(t, state.Email)
		assert.Empty(t, state.Error)
		assert.Equal(t, MsgQuoteReceived, state.Message)
		assert.Equal(t, "ana@x.com", store.contact)
	})
}
