// Package auth provides member authentication: bcrypt passwords and JWT
// session tokens.
package auth

import (
	"context"

	"github.com/mmynk/billsplit/internal/models"
)

// Ensure PasswordAuthenticator implements Authenticator
var _ Authenticator = (*PasswordAuthenticator)(nil)

// Authenticator turns credentials into members. AuthService depends on this
// interface only, so the password flow can sit beside other sign-in methods.
type Authenticator interface {
	// Register creates a member account, or claims a member that was added
	// to a group by email before it ever signed in.
	Register(ctx context.Context, email, displayName, credential string) (*models.Member, error)

	// Authenticate returns the member whose credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.Member, error)

	// ValidateCredential rejects credentials too weak to store.
	ValidateCredential(credential string) error
}
