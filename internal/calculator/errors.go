package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoMembers is returned when an equal split is requested for a group
	// without members.
	ErrNoMembers = errors.New("group has no members")

	// ErrNoPayer is returned when the payer-of-record has no member ID.
	ErrNoPayer = errors.New("payer is required")
)

// UnknownMemberError is returned when an explicit split names an identity
// that is neither a group member nor the payer.
type UnknownMemberError struct {
	Identity string
}

func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("member %s not found", e.Identity)
}

// SplitMismatchError is returned when an explicit split does not add up to
// the expense total within SplitTolerance.
type SplitMismatchError struct {
	Observed decimal.Decimal
	Expected decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("splits total (%s) does not match expense total (%s)",
		e.Observed.StringFixed(cents), e.Expected.StringFixed(cents))
}
