package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/billdoc"
	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/ledger"
	"github.com/mmynk/billsplit/internal/middleware"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
	"github.com/mmynk/billsplit/internal/workflow"
)

// ErrNotGroupMember is returned when the caller is not in the group.
var ErrNotGroupMember = errors.New("not a member of this group")

var (
	errMissingBill   = errors.New("bill document is required")
	errNegativeTotal = errors.New("total must not be negative")
	errMissingGroup  = errors.New("group_id is required")

	errMissingDisplayName = errors.New("display name is required")
)

// connectError maps domain errors to Connect codes.
func connectError(err error) *connect.Error {
	var (
		unknown    *calculator.UnknownMemberError
		mismatch   *calculator.SplitMismatchError
		invalid    *billdoc.ValidationError
		apiErr     *ledger.APIError
		connectErr *connect.Error
	)
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.As(err, &unknown):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &mismatch), errors.As(err, &invalid), errors.Is(err, billdoc.ErrMalformed):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, calculator.ErrNoMembers), errors.Is(err, calculator.ErrNoPayer),
		errors.Is(err, ledger.ErrUnknownPayer):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, workflow.ErrAlreadySubmitted), errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, ledger.ErrGroupNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrNotGroupMember):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.As(err, &apiErr):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// requireMember returns the authenticated caller.
func requireMember(ctx context.Context) (models.LedgerMember, error) {
	member, ok := middleware.GetMember(ctx)
	if !ok || member.ID == "" {
		return models.LedgerMember{}, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return member, nil
}
