package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apptransfer "github.com/Zhima-Mochi/simplepay/internal/application/transfer"
	domacc "github.com/Zhima-Mochi/simplepay/internal/domain/account"
	domtx "github.com/Zhima-Mochi/simplepay/internal/domain/transfer"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/id"
	"github.com/Zhima-Mochi/simplepay/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthorizer struct{ err error }

func (a *stubAuthorizer) Authorize(context.Context) error { return a.err }

type stubNotifier struct{}

func (stubNotifier) Notify(context.Context, string, string) error { return nil }

func newTestRouter(t *testing.T, authErr error) http.Handler {
	t.Helper()

	accounts := memory.NewAccountRepository()
	ctx := context.Background()

	alice, err := domacc.New(1, domacc.KindUser, "Alice", "52998224725", "alice@example.com", "secret1", decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	require.NoError(t, accounts.Save(ctx, alice))

	bruno, err := domacc.New(2, domacc.KindUser, "Bruno", "15350946056", "bruno@example.com", "secret1", decimal.RequireFromString("0.00"))
	require.NoError(t, err)
	require.NoError(t, accounts.Save(ctx, bruno))

	store, err := domacc.New(3, domacc.KindSeller, "Corner Store", "11222333000181", "store@example.com", "secret1", decimal.RequireFromString("0.00"))
	require.NoError(t, err)
	require.NoError(t, accounts.Save(ctx, store))

	uc := apptransfer.NewUseCase(
		accounts,
		memory.NewLedgerRepository(),
		&stubAuthorizer{err: authErr},
		stubNotifier{},
		id.NewUUIDGenerator(),
		nil,
	)
	return NewHandler(uc, nil, nil).Router()
}

func doTransfer(t *testing.T, router http.Handler, body string) (*httptest.ResponseRecorder, transferResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp transferResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestHandleTransfer(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil)

	rec, resp := doTransfer(t, router, `{"amount":"30.00","payer":1,"payer_kind":"USER","payee":2,"payee_kind":"USER"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domtx.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, domtx.NoteCompleted, resp.Message)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleTransferErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       `{"amount":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"amount":"30.00","payer":1,"payer_kind":"USER","payee":2,"payee_kind":"USER","extra":true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing kind",
			body:       `{"amount":"30.00","payer":1,"payee":2,"payee_kind":"USER"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid amount scale",
			body:       `{"amount":"30.005","payer":1,"payer_kind":"USER","payee":2,"payee_kind":"USER"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "payer not found",
			body:       `{"amount":"30.00","payer":99,"payer_kind":"USER","payee":2,"payee_kind":"USER"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "seller payer",
			body:       `{"amount":"30.00","payer":3,"payer_kind":"SELLER","payee":1,"payee_kind":"USER"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "insufficient balance",
			body:       `{"amount":"30.00","payer":2,"payer_kind":"USER","payee":1,"payee_kind":"USER"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(t, nil)
			rec, resp := doTransfer(t, router, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, domtx.StatusFailed, resp.Status)
			assert.Empty(t, resp.TransactionID)
		})
	}
}

func TestHandleTransferAuthorizationDenied(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, domtx.ErrAuthorizationDenied)

	rec, resp := doTransfer(t, router, `{"amount":"30.00","payer":1,"payer_kind":"USER","payee":2,"payee_kind":"USER"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domtx.StatusFailed, resp.Status)
	assert.Equal(t, domtx.ErrAuthorizationDenied.Error(), resp.Message)
}

func TestHandleTransferMethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/transfer", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
