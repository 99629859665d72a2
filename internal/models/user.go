package models

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a stored ledger account.
//
// Members exist only in the local ledger. With a remote ledger (Splitwise)
// the accounts live on the remote side and the reconciler only ever sees
// LedgerMember values.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// Email is the member's email address (unique).
	// Explicit splits and the contacts store key members by email.
	Email string

	// DisplayName is the member's human-readable name.
	DisplayName string

	// Phone is the member's phone number, used for notifications.
	Phone string

	// PasswordHash is the bcrypt hash of the member's password.
	// Empty for members added to a group without registering.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the member was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the member was last updated.
	UpdatedAt int64
}

// NewMember creates a new member with a generated ID and timestamps.
func NewMember(email, displayName, passwordHash string) *Member {
	now := time.Now().Unix()
	return &Member{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// LedgerMember returns the reconciler's view of the member.
func (m *Member) LedgerMember() LedgerMember {
	return LedgerMember{ID: m.ID, Email: m.Email, Name: m.DisplayName}
}

// Contact is one entry of the contacts store.
type Contact struct {
	Name  string
	Phone string
	Email string
}
