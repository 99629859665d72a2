package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/billsplit/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("email is required")
)

// MemberStorage defines the member persistence the authenticator needs.
type MemberStorage interface {
	CreateMember(ctx context.Context, member *models.Member) error
	UpdateMember(ctx context.Context, member *models.Member) error
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage MemberStorage
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage MemberStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{storage: storage}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a member with a hashed password. A member that exists
// without a password (added to a group by someone else) is claimed instead.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.Member, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	existing, err := a.storage.GetMemberByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up member: %w", err)
	}
	if existing != nil && existing.PasswordHash != "" {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if existing != nil {
		existing.PasswordHash = string(hashedPassword)
		if displayName != "" {
			existing.DisplayName = displayName
		}
		if err := a.storage.UpdateMember(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to claim member: %w", err)
		}
		return existing, nil
	}

	member := models.NewMember(email, displayName, string(hashedPassword))
	if err := a.storage.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return member, nil
}

// Authenticate verifies the email and password, returning the member if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Member, error) {
	member, err := a.storage.GetMemberByEmail(ctx, strings.TrimSpace(email))
	if err != nil || member == nil || member.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return member, nil
}
