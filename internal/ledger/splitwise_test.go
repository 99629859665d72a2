package ledger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billsplit/internal/models"
)

const groupsResponse = `{"groups": [
  {"id": 0, "name": "Non-group expenses", "members": []},
  {"id": 42, "name": "AT&T Family Plan", "members": [
    {"id": 1, "first_name": "Ann", "last_name": "Lee", "email": "ann@x.com"},
    {"id": 2, "first_name": "Ben", "last_name": null, "email": null}
  ]}
]}`

func newSplitwiseServer(t *testing.T, handler http.HandlerFunc) *Splitwise {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSplitwise("test-key", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
}

func TestSplitwise_FindGroup(t *testing.T) {
	sw := newSplitwiseServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_groups", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(groupsResponse))
	})

	group, err := sw.FindGroup(context.Background(), "at&t")
	require.NoError(t, err)
	assert.Equal(t, "42", group.ID)
	assert.Equal(t, "AT&T Family Plan", group.Name)
	require.Len(t, group.Members, 2)
	assert.Equal(t, models.LedgerMember{ID: "1", Email: "ann@x.com", Name: "Ann Lee"}, group.Members[0])
	assert.Equal(t, models.LedgerMember{ID: "2", Name: "Ben"}, group.Members[1])

	_, err = sw.FindGroup(context.Background(), "verizon")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSplitwise_CurrentMember(t *testing.T) {
	sw := newSplitwiseServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_current_user", r.URL.Path)
		w.Write([]byte(`{"user": {"id": 7, "first_name": "Pat", "last_name": "Doe", "email": "pat@x.com"}}`))
	})

	me, err := sw.CurrentMember(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LedgerMember{ID: "7", Email: "pat@x.com", Name: "Pat Doe"}, me)
}

func TestSplitwise_CreateExpense(t *testing.T) {
	sw := newSplitwiseServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/create_expense", r.URL.Path)
		assert.NoError(t, r.ParseForm())

		assert.Equal(t, "100.00", r.PostForm.Get("cost"))
		assert.Equal(t, "Wireless Bill for Nov 2025", r.PostForm.Get("description"))
		assert.Equal(t, "42", r.PostForm.Get("group_id"))
		assert.Equal(t, "USD", r.PostForm.Get("currency_code"))
		assert.Equal(t, "7", r.PostForm.Get("users__0__user_id"))
		assert.Equal(t, "100.00", r.PostForm.Get("users__0__paid_share"))
		assert.Equal(t, "40.00", r.PostForm.Get("users__0__owed_share"))
		assert.Equal(t, "1", r.PostForm.Get("users__1__user_id"))
		assert.Equal(t, "0.00", r.PostForm.Get("users__1__paid_share"))
		assert.Equal(t, "60.00", r.PostForm.Get("users__1__owed_share"))

		w.Write([]byte(`{"expenses": [{"id": 9001}], "errors": {}}`))
	})

	expense := &models.Expense{
		GroupID:     "42",
		Description: "Wireless Bill for Nov 2025",
		Cost:        decimal.NewFromInt(100),
		Shares: []models.ExpenseShare{
			{MemberID: "7", Owed: decimal.NewFromInt(40), Paid: decimal.NewFromInt(100)},
			{MemberID: "1", Owed: decimal.NewFromInt(60), Paid: decimal.Zero},
		},
	}
	id, err := sw.CreateExpense(context.Background(), expense)
	require.NoError(t, err)
	assert.Equal(t, "9001", id)
	assert.Equal(t, "9001", expense.ID)
}

func TestSplitwise_CreateExpenseErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "errors payload",
			status:     http.StatusOK,
			body:       `{"expenses": [], "errors": {"base": ["The total of everyone's paid shares is not equal to the cost."]}}`,
			wantStatus: http.StatusOK,
			wantMsg:    "base: The total",
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error": "Invalid API Request: you are not logged in"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "not logged in",
		},
		{
			name:       "plain text failure",
			status:     http.StatusBadGateway,
			body:       "upstream down",
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := newSplitwiseServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := sw.CreateExpense(context.Background(), &models.Expense{GroupID: "1", Cost: decimal.NewFromInt(1)})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "error = %v", err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Contains(t, apiErr.Message, tt.wantMsg)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "", errorMessages(nil))
	assert.Equal(t, "", errorMessages([]byte(`[]`)))
	assert.Equal(t, "", errorMessages([]byte(`{}`)))
	assert.Equal(t, "a: x; b: y; b: z", errorMessages([]byte(`{"b": ["y", "z"], "a": ["x"]}`)))
}
