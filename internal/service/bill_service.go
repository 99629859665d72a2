package service

import (
	"bytes"
	"context"
	"log/slog"
	"sort"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/ledger"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/rpc"
	"github.com/mmynk/billsplit/internal/storage"
	"github.com/mmynk/billsplit/internal/workflow"
)

// LedgerFunc returns the ledger that records expenses paid by payer.
type LedgerFunc func(payer models.LedgerMember) ledger.Ledger

// LocalLedger submits to the local store on behalf of the caller.
func LocalLedger(l *ledger.Local) LedgerFunc {
	return func(payer models.LedgerMember) ledger.Ledger {
		return l.As(payer.Email)
	}
}

// FixedLedger submits to l whoever the caller is. The payer is the ledger's
// own account (the Splitwise API key owner).
func FixedLedger(l ledger.Ledger) LedgerFunc {
	return func(models.LedgerMember) ledger.Ledger {
		return l
	}
}

// BillService implements the Connect BillService.
type BillService struct {
	store     storage.Store
	pipeline  *workflow.Pipeline
	ledgerFor LedgerFunc
	metrics   *metrics.Metrics
}

var _ rpc.BillServiceHandler = (*BillService)(nil)

// NewBillService creates a BillService. Reconcile reads groups from store;
// SubmitBill runs pipeline against the ledger returned by ledgerFor.
func NewBillService(store storage.Store, pipeline *workflow.Pipeline, ledgerFor LedgerFunc, m *metrics.Metrics) *BillService {
	return &BillService{store: store, pipeline: pipeline, ledgerFor: ledgerFor, metrics: m}
}

// Allocate computes each identity's share of a bill document.
func (s *BillService) Allocate(ctx context.Context, req *connect.Request[rpc.AllocateRequest]) (*connect.Response[rpc.AllocateResponse], error) {
	slog.Info("Allocate request received", "bytes", len(req.Msg.Bill))

	if len(req.Msg.Bill) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingBill)
	}

	res, err := s.pipeline.Allocate(workflow.Input{Bill: bytes.NewReader(req.Msg.Bill)})
	if err != nil {
		slog.Error("Allocate failed", "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&rpc.AllocateResponse{
		Amounts:             toIdentityAmounts(res.Split),
		TotalBill:           res.Split.TotalBill,
		UndistributedShared: res.Split.UndistributedShared,
		Divergence:          toDivergence(res.Split.Divergence),
		Description:         res.Split.Description,
		Issues:              issueStrings(res),
	}), nil
}

// Reconcile maps a split of total onto a group's members, with the caller
// as payer.
func (s *BillService) Reconcile(ctx context.Context, req *connect.Request[rpc.ReconcileRequest]) (*connect.Response[rpc.ReconcileResponse], error) {
	payer, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Reconcile request received",
		"group_id", req.Msg.GroupID,
		"total", req.Msg.Total.StringFixed(2),
		"splits", len(req.Msg.Splits),
	)

	if req.Msg.Total.IsNegative() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNegativeTotal)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("Reconcile failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	shares, err := calculator.Reconcile(req.Msg.Total, group.Members, payer, req.Msg.Splits)
	if err != nil {
		s.metrics.ReconcileFailed(workflow.FailureReason(err))
		slog.Warn("Reconcile rejected", "group_id", group.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Reconcile successful", "group_id", group.ID, "shares", len(shares))

	return connect.NewResponse(&rpc.ReconcileResponse{
		Payer:  toMember(payer),
		Shares: toShares(shares, memberIndex(group.Members, payer)),
	}), nil
}

// SubmitBill runs the whole workflow for a bill document, with the caller
// as payer.
func (s *BillService) SubmitBill(ctx context.Context, req *connect.Request[rpc.SubmitBillRequest]) (*connect.Response[rpc.SubmitBillResponse], error) {
	payer, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("SubmitBill request received",
		"member_id", payer.ID,
		"group_filter", req.Msg.GroupFilter,
		"notify", req.Msg.Notify,
		"dry_run", req.Msg.DryRun,
	)

	if len(req.Msg.Bill) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingBill)
	}

	res, err := s.pipeline.WithLedger(s.ledgerFor(payer)).Run(ctx, workflow.Input{
		Bill:        bytes.NewReader(req.Msg.Bill),
		GroupFilter: req.Msg.GroupFilter,
		Notify:      req.Msg.Notify,
		DryRun:      req.Msg.DryRun,
	})
	if err != nil {
		slog.Error("SubmitBill failed", "member_id", payer.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("SubmitBill successful", "expense_id", res.ExpenseID, "group_id", res.Group.ID)

	return connect.NewResponse(&rpc.SubmitBillResponse{
		ExpenseID:     res.ExpenseID,
		Description:   res.Description,
		Fingerprint:   res.Fingerprint,
		Group:         toGroup(res.Group),
		Payer:         toMember(res.Payer),
		Amounts:       toIdentityAmounts(res.Split),
		Shares:        toShares(res.Shares, memberIndex(res.Group.Members, res.Payer)),
		Divergence:    toDivergence(res.Split.Divergence),
		Issues:        issueStrings(res),
		Notifications: toNotifications(res),
	}), nil
}

func toIdentityAmounts(split models.SplitResult) []rpc.IdentityAmount {
	identities := make([]string, 0, len(split.Amounts))
	for id := range split.Amounts {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	amounts := make([]rpc.IdentityAmount, len(identities))
	for i, id := range identities {
		detail := split.Details[id]
		amounts[i] = rpc.IdentityAmount{
			Identity:    id,
			Amount:      split.Amounts[id],
			Individual:  detail.Individual,
			SharedShare: detail.SharedShare,
			Items:       toLineItems(detail.Items),
		}
	}
	return amounts
}

func toLineItems(items []models.LineItem) []rpc.LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]rpc.LineItem, len(items))
	for i, item := range items {
		out[i] = rpc.LineItem{Description: item.Description, Amount: item.Amount, Category: item.Category}
	}
	return out
}

func toDivergence(w *models.TotalDivergenceWarning) *rpc.Divergence {
	if w == nil {
		return nil
	}
	return &rpc.Divergence{Declared: w.Declared, Computed: w.Computed, Difference: w.Difference()}
}

func issueStrings(res *workflow.Result) []string {
	if len(res.Issues) == 0 {
		return nil
	}
	out := make([]string, len(res.Issues))
	for i, issue := range res.Issues {
		out[i] = issue.String()
	}
	return out
}

func toNotifications(res *workflow.Result) []rpc.Notification {
	if len(res.Notifications) == 0 {
		return nil
	}
	identities := make([]string, 0, len(res.Notifications))
	for id := range res.Notifications {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	out := make([]rpc.Notification, len(identities))
	for i, id := range identities {
		status := res.Notifications[id]
		out[i] = rpc.Notification{Identity: id, State: string(status.State), Detail: status.Detail}
	}
	return out
}
