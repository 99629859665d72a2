package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/billsplit/internal/models"
)

// DefaultSplitwiseURL is the Splitwise v3.0 API root.
const DefaultSplitwiseURL = "https://secure.splitwise.com/api/v3.0"

// Ensure Splitwise implements Ledger
var _ Ledger = (*Splitwise)(nil)

// Splitwise is a ledger backed by the Splitwise API. The payer-of-record is
// the account that owns the API key.
type Splitwise struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// SplitwiseOption configures a Splitwise client.
type SplitwiseOption func(*Splitwise)

// WithBaseURL overrides the API root.
func WithBaseURL(baseURL string) SplitwiseOption {
	return func(s *Splitwise) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) SplitwiseOption {
	return func(s *Splitwise) {
		s.httpClient = client
	}
}

// NewSplitwise creates a client authenticating with apiKey.
func NewSplitwise(apiKey string, opts ...SplitwiseOption) *Splitwise {
	s := &Splitwise{
		apiKey:     apiKey,
		baseURL:    DefaultSplitwiseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// APIError is a non-2xx response or an error payload from Splitwise.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("splitwise: status %d: %s", e.StatusCode, e.Message)
}

type swUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u swUser) ledgerMember() models.LedgerMember {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return models.LedgerMember{ID: strconv.FormatInt(u.ID, 10), Email: u.Email, Name: name}
}

type swGroup struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Members []swUser `json:"members"`
}

// FindGroup lists the account's groups and returns the first whose name
// contains nameFilter.
func (s *Splitwise) FindGroup(ctx context.Context, nameFilter string) (*models.Group, error) {
	var resp struct {
		Groups []swGroup `json:"groups"`
	}
	if err := s.do(ctx, http.MethodGet, "/get_groups", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	filter := strings.ToLower(nameFilter)
	for _, g := range resp.Groups {
		if !strings.Contains(strings.ToLower(g.Name), filter) {
			continue
		}
		group := &models.Group{ID: strconv.FormatInt(g.ID, 10), Name: g.Name}
		for _, m := range g.Members {
			group.Members = append(group.Members, m.ledgerMember())
		}
		return group, nil
	}

	return nil, fmt.Errorf("%w: no group matching %q", ErrGroupNotFound, nameFilter)
}

// CurrentMember returns the API key's owner.
func (s *Splitwise) CurrentMember(ctx context.Context) (models.LedgerMember, error) {
	var resp struct {
		User swUser `json:"user"`
	}
	if err := s.do(ctx, http.MethodGet, "/get_current_user", nil, &resp); err != nil {
		return models.LedgerMember{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return resp.User.ledgerMember(), nil
}

// CreateExpense submits the expense with one users__N entry per share.
func (s *Splitwise) CreateExpense(ctx context.Context, expense *models.Expense) (string, error) {
	currency := expense.Currency
	if currency == "" {
		currency = "USD"
	}

	form := url.Values{}
	form.Set("cost", expense.Cost.StringFixed(2))
	form.Set("description", expense.Description)
	form.Set("group_id", expense.GroupID)
	form.Set("currency_code", currency)
	for i, share := range expense.Shares {
		prefix := fmt.Sprintf("users__%d__", i)
		form.Set(prefix+"user_id", share.MemberID)
		form.Set(prefix+"paid_share", share.Paid.StringFixed(2))
		form.Set(prefix+"owed_share", share.Owed.StringFixed(2))
	}

	var resp struct {
		Expenses []struct {
			ID int64 `json:"id"`
		} `json:"expenses"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := s.do(ctx, http.MethodPost, "/create_expense", form, &resp); err != nil {
		return "", fmt.Errorf("failed to create expense: %w", err)
	}
	if msg := errorMessages(resp.Errors); msg != "" {
		return "", fmt.Errorf("failed to create expense: %w", &APIError{StatusCode: http.StatusOK, Message: msg})
	}
	if len(resp.Expenses) == 0 {
		return "", fmt.Errorf("failed to create expense: empty response")
	}

	id := strconv.FormatInt(resp.Expenses[0].ID, 10)
	expense.ID = id
	return id, nil
}

func (s *Splitwise) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error  string          `json:"error"`
			Errors json.RawMessage `json:"errors"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &payload) == nil {
			if payload.Error != "" {
				msg = payload.Error
			} else if m := errorMessages(payload.Errors); m != "" {
				msg = m
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessages flattens Splitwise's errors field, which is either an
// object of string lists ({"base": ["..."]}) or an empty list.
func errorMessages(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var byField map[string][]string
	if err := json.Unmarshal(raw, &byField); err != nil {
		return ""
	}

	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		for _, msg := range byField[field] {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}
