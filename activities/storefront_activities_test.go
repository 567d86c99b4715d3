package activities

import (
	"context"
	"errors"
	"testing"

	"domain-storefront/models"
	"domain-storefront/search"
	"domain-storefront/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

type stubSuggester struct {
	suggestions []string
	err         error
}

func (s stubSuggester) Suggest(context.Context, string) ([]string, error) {
	return s.suggestions, s.err
}

type failingChecker struct{}

func (failingChecker) Check(context.Context, string) (search.Availability, error) {
	return search.Availability{}, errors.New("registry unreachable")
}

func newTestActivities(suggester search.Suggester) (*Activities, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	svc := search.NewService(search.NewSimulatedRegistry(0, "49,99"), suggester)
	return NewActivities(storage.NewBridge(store), svc), store
}

func TestLoadSession(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, store *storage.MemoryStore)
		want    models.SavedSession
		corrupt bool
	}{
		{
			name: "Success - Empty Storage",
			want: models.SavedSession{},
		},
		{
			name: "Success - Cart And Email",
			setup: func(t *testing.T, store *storage.MemoryStore) {
				ctx := context.Background()
				require.NoError(t, store.Set(ctx, "storefront:client-1:domainCart", `{"domain":"meusite.com.br","price":"49,99"}`))
				require.NoError(t, store.Set(ctx, "storefront:client-1:userContactEmail", "ana@x.com"))
			},
			want: models.SavedSession{
				Cart:         &models.CartItem{Domain: "meusite.com.br", Price: "49,99"},
				ContactEmail: "ana@x.com",
			},
		},
		{
			name: "Success - Corrupt Cart Treated As Absent",
			setup: func(t *testing.T, store *storage.MemoryStore) {
				require.NoError(t, store.Set(context.Background(), "storefront:client-1:domainCart", `{"domain":`))
			},
			want:    models.SavedSession{},
			corrupt: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			acts, store := newTestActivities(stubSuggester{})
			if tt.setup != nil {
				tt.setup(t, store)
			}
			env.RegisterActivity(acts.LoadSession)

			val, err := env.ExecuteActivity(acts.LoadSession, "client-1")
			require.NoError(t, err)

			var saved models.SavedSession
			require.NoError(t, val.Get(&saved))
			assert.Equal(t, tt.want, saved)

			if tt.corrupt {
				_, err := store.Get(context.Background(), "storefront:client-1:domainCart")
				assert.ErrorIs(t, err, storage.ErrNotFound)
			}
		})
	}
}

func TestCartActivities(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts, store := newTestActivities(stubSuggester{})
	env.RegisterActivity(acts.PersistCart)
	env.RegisterActivity(acts.ClearCart)
	env.RegisterActivity(acts.SaveContactEmail)

	_, err := env.ExecuteActivity(acts.PersistCart, "client-1", models.CartItem{Domain: "meusite.com.br", Price: "49,99"})
	require.NoError(t, err)
	raw, err := store.Get(context.Background(), "storefront:client-1:domainCart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"domain":"meusite.com.br","price":"49,99"}`, raw)

	_, err = env.ExecuteActivity(acts.ClearCart, "client-1")
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "storefront:client-1:domainCart")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = env.ExecuteActivity(acts.SaveContactEmail, "client-1", "ana@x.com")
	require.NoError(t, err)
	email, err := store.Get(context.Background(), "storefront:client-1:userContactEmail")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", email)
}

func TestSearchDomain(t *testing.T) {
	tests := []struct {
		name      string
		domain    string
		suggester stubSuggester
		want      models.LookupResult
	}{
		{
			name:   "Success - Available",
			domain: "meusite.com.br",
			want:   models.LookupResult{Domain: "meusite.com.br", Available: true, Price: "49,99"},
		},
		{
			name:      "Success - Taken With Suggestions",
			domain:    "loja-indisponivel.com",
			suggester: stubSuggester{suggestions: []string{"lojadigital.com.br", "LojaHub.io"}},
			want: models.LookupResult{
				Domain:      "loja-indisponivel.com",
				Suggestions: []string{"lojadigital.com.br", "lojahub.io"},
			},
		},
		{
			name:      "Success - Suggestion Failure In Result",
			domain:    "loja-indisponivel.com",
			suggester: stubSuggester{err: errors.New("quota exceeded")},
			want:      models.LookupResult{Domain: "loja-indisponivel.com", SuggestionsFailed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			acts, _ := newTestActivities(tt.suggester)
			env.RegisterActivity(acts.SearchDomain)

			val, err := env.ExecuteActivity(acts.SearchDomain, tt.domain)
			require.NoError(t, err)

			var result models.LookupResult
			require.NoError(t, val.Get(&result))
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestSearchDomain_RegistryFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts := NewActivities(storage.NewBridge(storage.NewMemoryStore()), search.NewService(failingChecker{}, stubSuggester{}))
	env.RegisterActivity(acts.SearchDomain)

	_, err := env.ExecuteActivity(acts.SearchDomain, "meusite.com.br")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain search failed")
}

func TestSideChannelActivities(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	acts, _ := newTestActivities(stubSuggester{})
	env.RegisterActivity(acts.SendVerificationCode)
	env.RegisterActivity(acts.SubmitQuoteRequest)

	_, err := env.ExecuteActivity(acts.SendVerificationCode, models.CodeNotice{SessionID: "s-1", Email: "ana@x.com", Code: "123456"})
	assert.NoError(t, err)

	_, err = env.ExecuteActivity(acts.SubmitQuoteRequest, "client-1", "ana@x.com")
	assert.NoError(t, err)
}
