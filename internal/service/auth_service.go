package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/rpc"
)

// MemberLookup fetches stored members.
type MemberLookup interface {
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	members       MemberLookup
	logger        *slog.Logger
}

var _ rpc.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, members MemberLookup, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		members:       members,
		logger:        logger,
	}
}

// Register creates a new member account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[rpc.RegisterRequest]) (*connect.Response[rpc.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	// Validate input
	if strings.TrimSpace(req.Msg.Email) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidEmail)
	}
	if strings.TrimSpace(req.Msg.DisplayName) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingDisplayName)
	}

	member, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, connectError(err)
	}

	token, err := s.jwtManager.Generate(member)
	if err != nil {
		s.logger.Error("Failed to generate token", "member_id", member.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Member registered successfully", "member_id", member.ID, "email", member.Email)
	return connect.NewResponse(&rpc.RegisterResponse{
		Member: toMember(member.LedgerMember()),
		Token:  token,
	}), nil
}

// Login authenticates a member and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[rpc.LoginRequest]) (*connect.Response[rpc.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	member, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(member)
	if err != nil {
		s.logger.Error("Failed to generate token", "member_id", member.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Member logged in successfully", "member_id", member.ID, "email", member.Email)
	return connect.NewResponse(&rpc.LoginResponse{
		Member: toMember(member.LedgerMember()),
		Token:  token,
	}), nil
}

// CurrentMember returns the authenticated member as stored.
func (s *AuthService) CurrentMember(ctx context.Context, req *connect.Request[rpc.CurrentMemberRequest]) (*connect.Response[rpc.CurrentMemberResponse], error) {
	caller, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("CurrentMember request", "member_id", caller.ID)

	member, err := s.members.GetMemberByID(ctx, caller.ID)
	if err != nil {
		s.logger.Error("Failed to load member", "member_id", caller.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if member == nil {
		// Token outlived the account.
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	return connect.NewResponse(&rpc.CurrentMemberResponse{Member: toMember(member.LedgerMember())}), nil
}
