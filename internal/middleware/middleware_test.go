package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/models"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		wantOK bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"  Bearer abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	member := models.NewMember("alice@example.com", "Alice", "")
	token, err := jwtManager.Generate(member)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	other, err := auth.NewJWTManager("other-secret", time.Hour).Generate(member)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantMember bool
	}{
		{name: "valid token", header: "Bearer " + token, wantMember: true},
		{name: "no header"},
		{name: "wrong scheme", header: "Token " + token},
		{name: "foreign signature", header: "Bearer " + other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got models.LedgerMember
				ok  bool
			)
			next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				got, ok = GetMember(ctx)
				return nil, nil
			}

			req := connect.NewRequest(&struct{}{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			if _, err := OptionalAuth(jwtManager)(next)(context.Background(), req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if ok != tt.wantMember {
				t.Fatalf("member present = %v, want %v", ok, tt.wantMember)
			}
			if ok && (got.ID != member.ID || got.Email != member.Email) {
				t.Errorf("member = %+v, want ID %s email %s", got, member.ID, member.Email)
			}
		})
	}
}

func TestLoggingInterceptor_RecordsCodes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	errs := []error{
		nil,
		connect.NewError(connect.CodeNotFound, errors.New("missing")),
		errors.New("boom"),
	}
	for _, want := range errs {
		next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, want
		}
		_, err := LoggingInterceptor(m)(next)(context.Background(), connect.NewRequest(&struct{}{}))
		if err != want {
			t.Errorf("error = %v, want %v passed through", err, want)
		}
	}

	n, err := testutil.GatherAndCount(registry, "billsplit_rpc_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("rpc_requests_total series = %d, want 3", n)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err      error
		wantCode string
	}{
		{nil, "ok"},
		{connect.NewError(connect.CodeInvalidArgument, errors.New("bad")), "invalid_argument"},
		{connect.NewError(connect.CodeInternal, errors.New("db")), "internal"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if code, _, _ := outcome(tt.err); code != tt.wantCode {
			t.Errorf("outcome(%v) code = %q, want %q", tt.err, code, tt.wantCode)
		}
	}
}
