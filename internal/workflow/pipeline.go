// Package workflow runs a bill from its document to a ledger expense:
// contacts, decode, allocate, reconcile, submit, notify.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/billsplit/internal/billdoc"
	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/guard"
	"github.com/mmynk/billsplit/internal/identity"
	"github.com/mmynk/billsplit/internal/ledger"
	"github.com/mmynk/billsplit/internal/metrics"
	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/notify"
	"github.com/mmynk/billsplit/internal/storage"
)

// ErrAlreadySubmitted is returned when the same bill was already submitted
// to the same group.
var ErrAlreadySubmitted = errors.New("bill already submitted")

// DefaultGroupFilter selects the wireless plan group.
const DefaultGroupFilter = "at&t"

// Config holds the pipeline settings.
type Config struct {
	// ContactsPath is the contacts file, read on every run.
	ContactsPath string

	// GroupFilter is used when Input.GroupFilter is empty.
	GroupFilter string

	// SubmissionTTL is how long a submitted bill stays claimed.
	SubmissionTTL time.Duration
}

// Input describes one run.
type Input struct {
	// BillPath is the bill document on disk. Ignored when Bill is set.
	BillPath string

	// Bill is the bill document itself.
	Bill io.Reader

	// GroupFilter selects the ledger group by name substring.
	GroupFilter string

	// Notify sends each member their share after submission.
	Notify bool

	// DryRun stops after reconciliation; nothing is written or sent.
	DryRun bool
}

// Result is everything a run produced.
type Result struct {
	Bill          models.BillSnapshot
	Issues        []billdoc.Issue
	Split         models.SplitResult
	Group         *models.Group
	Payer         models.LedgerMember
	Shares        []models.ExpenseShare
	Description   string
	Fingerprint   string
	ExpenseID     string
	Notifications map[string]notify.Status
}

// Pipeline sequences the bill workflow. It is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	ledger   ledger.Ledger
	guard    guard.Guard
	notifier *notify.Notifier
	metrics  *metrics.Metrics
}

// New creates a pipeline. A nil guard falls back to an in-memory guard; a
// nil notifier disables notifications.
func New(cfg Config, l ledger.Ledger, g guard.Guard, n *notify.Notifier, m *metrics.Metrics) *Pipeline {
	if cfg.GroupFilter == "" {
		cfg.GroupFilter = DefaultGroupFilter
	}
	if g == nil {
		g = guard.NewMemoryGuard()
	}
	return &Pipeline{cfg: cfg, ledger: l, guard: g, notifier: n, metrics: m}
}

// WithLedger returns a copy of the pipeline submitting to l.
func (p *Pipeline) WithLedger(l ledger.Ledger) *Pipeline {
	c := *p
	c.ledger = l
	return &c
}

// Allocate decodes the bill and computes what each identity owes. It
// touches neither the ledger nor the submission guard.
func (p *Pipeline) Allocate(in Input) (*Result, error) {
	res, _, err := p.allocate(in)
	return res, err
}

// Run executes the workflow.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	res, book, err := p.allocate(in)
	if err != nil {
		return nil, err
	}

	filter := in.GroupFilter
	if filter == "" {
		filter = p.cfg.GroupFilter
	}
	if res.Group, err = p.ledger.FindGroup(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if res.Payer, err = p.ledger.CurrentMember(ctx); err != nil {
		return nil, fmt.Errorf("failed to get payer: %w", err)
	}

	res.Shares, err = calculator.Reconcile(res.Bill.TotalAmount, res.Group.Members, res.Payer, res.Split.Amounts)
	if err != nil {
		p.metrics.ReconcileFailed(FailureReason(err))
		return nil, fmt.Errorf("failed to reconcile split: %w", err)
	}

	res.Description = ExpenseDescription(res.Bill)
	res.Fingerprint = Fingerprint(res.Bill, res.Group.ID)
	slog.Info("Split reconciled",
		"group", res.Group.Name,
		"payer", res.Payer.Email,
		"shares", len(res.Shares),
		"fingerprint", res.Fingerprint,
	)

	if in.DryRun {
		return res, nil
	}

	if res.ExpenseID, err = p.submit(ctx, res); err != nil {
		return nil, err
	}

	if in.Notify {
		if p.notifier == nil {
			slog.Warn("Notifications requested but no sender is configured")
		} else {
			res.Notifications = p.notifier.Notify(ctx, res.Split.Amounts, book)
		}
	}

	return res, nil
}

func (p *Pipeline) allocate(in Input) (*Result, *identity.ContactBook, error) {
	book, err := p.loadContacts()
	if err != nil {
		return nil, nil, err
	}

	res := &Result{}
	if res.Bill, res.Issues, err = p.decode(in); err != nil {
		return nil, nil, err
	}
	for _, issue := range res.Issues {
		slog.Warn("Bill document issue", "field", issue.Field, "message", issue.Message)
	}

	res.Split = calculator.Allocate(res.Bill, book)
	p.metrics.Allocated(res.Split.Divergence != nil)
	if d := res.Split.Divergence; d != nil {
		slog.Warn("Computed total differs from bill total",
			"declared", d.Declared.StringFixed(2),
			"computed", d.Computed.StringFixed(2),
			"difference", d.Difference().StringFixed(2),
		)
	}
	slog.Info("Bill allocated",
		"participants", len(res.Bill.Participants),
		"total", res.Split.TotalBill.StringFixed(2),
	)
	return res, book, nil
}

func (p *Pipeline) loadContacts() (*identity.ContactBook, error) {
	if p.cfg.ContactsPath == "" {
		return identity.NewContactBook(nil), nil
	}
	book, err := identity.LoadFile(p.cfg.ContactsPath)
	if errors.Is(err, identity.ErrNoContacts) {
		slog.Warn("Contacts file not found, participants keep their bill names", "path", p.cfg.ContactsPath)
		return book, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	slog.Debug("Contacts loaded", "count", book.Len())
	return book, nil
}

func (p *Pipeline) decode(in Input) (models.BillSnapshot, []billdoc.Issue, error) {
	var (
		bill   models.BillSnapshot
		issues []billdoc.Issue
		err    error
	)
	switch {
	case in.Bill != nil:
		bill, issues, err = billdoc.Decode(in.Bill)
	case in.BillPath != "":
		bill, issues, err = billdoc.LoadFile(in.BillPath)
	default:
		return bill, nil, &billdoc.ValidationError{Field: "bill", Reason: "no bill document given"}
	}
	if err != nil {
		return bill, nil, fmt.Errorf("failed to parse bill: %w", err)
	}
	return bill, issues, nil
}

func (p *Pipeline) submit(ctx context.Context, res *Result) (string, error) {
	claimed, err := p.guard.Claim(ctx, res.Fingerprint, p.cfg.SubmissionTTL)
	if err != nil {
		p.metrics.Submitted("failed")
		return "", fmt.Errorf("failed to check for duplicate submission: %w", err)
	}
	if !claimed {
		p.metrics.Submitted("duplicate")
		return "", fmt.Errorf("%w: %s", ErrAlreadySubmitted, res.Description)
	}

	expense := &models.Expense{
		GroupID:     res.Group.ID,
		Description: res.Description,
		Cost:        res.Bill.TotalAmount,
		Currency:    "USD",
		PayerID:     res.Payer.ID,
		Fingerprint: res.Fingerprint,
		Shares:      res.Shares,
	}
	id, err := p.ledger.CreateExpense(ctx, expense)
	if errors.Is(err, storage.ErrDuplicateExpense) {
		p.metrics.Submitted("duplicate")
		return "", fmt.Errorf("%w: %v", ErrAlreadySubmitted, err)
	}
	if err != nil {
		if relErr := p.guard.Release(ctx, res.Fingerprint); relErr != nil {
			slog.Error("Failed to release submission claim", "fingerprint", res.Fingerprint, "error", relErr)
		}
		p.metrics.Submitted("failed")
		return "", fmt.Errorf("failed to create expense: %w", err)
	}

	p.metrics.Submitted("created")
	slog.Info("Expense created", "expense_id", id, "description", res.Description)
	return id, nil
}

// ExpenseDescription labels the ledger expense for a bill.
func ExpenseDescription(bill models.BillSnapshot) string {
	period := strings.TrimSpace(bill.UsagePeriod)
	if period == "" {
		period = strings.TrimSpace(bill.PeriodStart + " to " + bill.PeriodEnd)
		if period == "to" {
			period = "unknown period"
		}
	}
	return "Wireless Bill for " + period
}

// Fingerprint identifies a bill submitted to a group. Two documents for the
// same period, total and per-person amounts in the same group collide.
func Fingerprint(bill models.BillSnapshot, groupID string) string {
	names := make([]string, 0, len(bill.Participants))
	for _, p := range bill.Participants {
		names = append(names, p.Name+"="+p.IndividualTotal.StringFixed(2))
	}
	sort.Strings(names)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s",
		groupID, bill.PeriodStart, bill.PeriodEnd, bill.UsagePeriod,
		bill.TotalAmount.StringFixed(2), strings.Join(names, ","))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// FailureReason names a reconciliation error for metrics.
func FailureReason(err error) string {
	var unknown *calculator.UnknownMemberError
	var mismatch *calculator.SplitMismatchError
	switch {
	case errors.As(err, &unknown):
		return "unknown_member"
	case errors.As(err, &mismatch):
		return "split_mismatch"
	case errors.Is(err, calculator.ErrNoMembers):
		return "no_members"
	case errors.Is(err, calculator.ErrNoPayer):
		return "no_payer"
	default:
		return "other"
	}
}
