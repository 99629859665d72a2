package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/rpc"
	"github.com/mmynk/billsplit/internal/storage"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

var _ rpc.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[rpc.CreateGroupRequest]) (*connect.Response[rpc.CreateGroupResponse], error) {
	caller, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberEmails),
	)

	others, err := s.ensureMembers(ctx, req.Msg.MemberEmails)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	group := &models.Group{
		Name:    strings.TrimSpace(req.Msg.Name),
		Members: []models.LedgerMember{caller},
	}
	for _, m := range others {
		if m.ID != caller.ID {
			group.Members = append(group.Members, m)
		}
	}

	// Save to storage (generates ID, CreatedAt and a name if empty)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&rpc.CreateGroupResponse{Group: toGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[rpc.GetGroupRequest]) (*connect.Response[rpc.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&rpc.GetGroupResponse{Group: toGroup(group)}), nil
}

// AddMembers appends members to a group by email.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[rpc.AddMembersRequest]) (*connect.Response[rpc.AddMembersResponse], error) {
	slog.Info("AddMembers request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.MemberEmails),
	)

	if _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	members, err := s.ensureMembers(ctx, req.Msg.MemberEmails)
	if err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	if err := s.store.AddGroupMembers(ctx, req.Msg.GroupID, ids); err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("AddMembers successful", "group_id", group.ID, "members", len(group.Members))

	return connect.NewResponse(&rpc.AddMembersResponse{Group: toGroup(group)}), nil
}

// ListExpenses retrieves all expenses of a group, oldest first.
func (s *GroupService) ListExpenses(ctx context.Context, req *connect.Request[rpc.ListExpensesRequest]) (*connect.Response[rpc.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	index, err := s.memberDirectory(ctx, group, expenses)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]rpc.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = rpc.Expense{
			ID:          e.ID,
			GroupID:     e.GroupID,
			Description: e.Description,
			Cost:        e.Cost,
			Currency:    e.Currency,
			PayerID:     e.PayerID,
			Shares:      toShares(e.Shares, index),
			CreatedAt:   e.CreatedAt,
		}
	}

	slog.Info("ListExpenses successful", "group_id", group.ID, "count", len(out))

	return connect.NewResponse(&rpc.ListExpensesResponse{Expenses: out}), nil
}

// GetBalances computes who owes whom across a group's expenses.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[rpc.GetBalancesRequest]) (*connect.Response[rpc.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	index, err := s.memberDirectory(ctx, group, expenses)
	if err != nil {
		return nil, connectError(err)
	}

	balances, debts := calculator.CalculateGroupBalances(expenses)

	resp := &rpc.GetBalancesResponse{
		Balances: make([]rpc.Balance, len(balances)),
		Debts:    make([]rpc.Debt, len(debts)),
	}
	for i, b := range balances {
		m := index[b.MemberID]
		resp.Balances[i] = rpc.Balance{
			MemberID:   b.MemberID,
			Email:      m.Email,
			Name:       m.Name,
			TotalPaid:  b.TotalPaid,
			TotalOwed:  b.TotalOwed,
			NetBalance: b.NetBalance,
		}
	}
	for i, d := range debts {
		resp.Debts[i] = rpc.Debt{From: d.From, To: d.To, Amount: d.Amount}
	}

	slog.Info("GetBalances successful",
		"group_id", group.ID,
		"expenses", len(expenses),
		"debts", len(debts),
	)

	return connect.NewResponse(resp), nil
}

// memberGroup loads a group the caller belongs to. Errors are Connect errors.
func (s *GroupService) memberGroup(ctx context.Context, groupID string) (*models.Group, error) {
	caller, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingGroup)
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, connectError(err)
	}
	for _, m := range group.Members {
		if m.ID == caller.ID {
			return group, nil
		}
	}
	return nil, connectError(fmt.Errorf("group %s: %w", groupID, ErrNotGroupMember))
}

// ensureMembers returns the members with the given emails, in order,
// creating passwordless members for unknown emails. Duplicates are dropped.
func (s *GroupService) ensureMembers(ctx context.Context, emails []string) ([]models.LedgerMember, error) {
	seen := make(map[string]bool, len(emails))
	members := make([]models.LedgerMember, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		key := strings.ToLower(email)
		if email == "" || seen[key] {
			continue
		}
		seen[key] = true

		member, err := s.store.GetMemberByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if member == nil {
			member = models.NewMember(email, displayNameFromEmail(email), "")
			if err := s.store.CreateMember(ctx, member); err != nil {
				return nil, err
			}
			slog.Info("Member created", "member_id", member.ID, "email", email)
		}
		members = append(members, member.LedgerMember())
	}
	return members, nil
}

// memberDirectory indexes the group's members plus anyone else appearing in
// the expenses (a payer who left the group, for instance).
func (s *GroupService) memberDirectory(ctx context.Context, group *models.Group, expenses []*models.Expense) (map[string]models.LedgerMember, error) {
	index := memberIndex(group.Members)
	for _, e := range expenses {
		for _, share := range e.Shares {
			if _, ok := index[share.MemberID]; ok {
				continue
			}
			member, err := s.store.GetMemberByID(ctx, share.MemberID)
			if err != nil {
				return nil, err
			}
			if member == nil {
				index[share.MemberID] = models.LedgerMember{ID: share.MemberID}
				continue
			}
			index[share.MemberID] = member.LedgerMember()
		}
	}
	return index, nil
}

func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func memberIndex(members []models.LedgerMember, extra ...models.LedgerMember) map[string]models.LedgerMember {
	index := make(map[string]models.LedgerMember, len(members)+len(extra))
	for _, m := range extra {
		index[m.ID] = m
	}
	for _, m := range members {
		index[m.ID] = m
	}
	return index
}

func toMember(m models.LedgerMember) rpc.Member {
	return rpc.Member{ID: m.ID, Email: m.Email, Name: m.Name}
}

func toGroup(g *models.Group) rpc.Group {
	members := make([]rpc.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = toMember(m)
	}
	return rpc.Group{ID: g.ID, Name: g.Name, Members: members, CreatedAt: g.CreatedAt}
}

func toShares(shares []models.ExpenseShare, index map[string]models.LedgerMember) []rpc.Share {
	out := make([]rpc.Share, len(shares))
	for i, share := range shares {
		m := index[share.MemberID]
		out[i] = rpc.Share{
			MemberID: share.MemberID,
			Email:    m.Email,
			Name:     m.Name,
			Owed:     share.Owed,
			Paid:     share.Paid,
		}
	}
	return out
}
