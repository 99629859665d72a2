// Command billsplit splits a wireless bill among its lines and records the
// result as one expense in the configured ledger.
//
// Usage:
//
//	billsplit -bill bill.json [-contacts contacts.json] [-group at&t] [-notify] [-dry-run]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/mmynk/billsplit/internal/app"
	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/config"
	"github.com/mmynk/billsplit/internal/workflow"
	"github.com/mmynk/billsplit/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("billsplit", flag.ContinueOnError)
	billPath := fs.String("bill", "", "path to the extracted bill JSON (required)")
	contactsPath := fs.String("contacts", "", "path to the contacts JSON (default $CONTACTS_PATH)")
	groupFilter := fs.String("group", "", "ledger group name filter (default $GROUP_FILTER)")
	notifyMembers := fs.Bool("notify", false, "message every member their share after submitting")
	dryRun := fs.Bool("dry-run", false, "allocate and reconcile without submitting")
	envFile := fs.String("env", ".env", "optional .env file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *billPath == "" {
		fmt.Fprintln(fs.Output(), "billsplit: -bill is required")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.Setup()
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)
	if *contactsPath != "" {
		cfg.ContactsPath = *contactsPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	res, err := a.Pipeline.Run(ctx, workflow.Input{
		BillPath:    *billPath,
		GroupFilter: *groupFilter,
		Notify:      *notifyMembers,
		DryRun:      *dryRun,
	})
	if err != nil {
		slog.Error("Bill workflow failed", "error", err)
		explain(stdout, err)
		return 1
	}

	printResult(stdout, res)
	return 0
}

// explain prints a hint for the errors a user can fix.
func explain(w io.Writer, err error) {
	var (
		unknown  *calculator.UnknownMemberError
		mismatch *calculator.SplitMismatchError
	)
	switch {
	case errors.As(err, &unknown):
		fmt.Fprintf(w, "%q is not a member of the group. Add them, or map their phone number to their email in the contacts file.\n", unknown.Identity)
	case errors.As(err, &mismatch):
		fmt.Fprintf(w, "The per-person amounts add up to %s but the bill total is %s. Check the extracted bill.\n",
			mismatch.Observed.StringFixed(2), mismatch.Expected.StringFixed(2))
	case errors.Is(err, workflow.ErrAlreadySubmitted):
		fmt.Fprintln(w, "This bill was already submitted to the group.")
	}
}

func printResult(w io.Writer, res *workflow.Result) {
	fmt.Fprintf(w, "%s\n", res.Description)
	if res.Group != nil {
		fmt.Fprintf(w, "Group: %s (paid by %s)\n", res.Group.Name, res.Payer.Email)
	}
	if d := res.Split.Divergence; d != nil {
		fmt.Fprintf(w, "Warning: bill total %s differs from the charges (%s) by %s\n",
			d.Declared.StringFixed(2), d.Computed.StringFixed(2), d.Difference().StringFixed(2))
	}
	fmt.Fprintln(w)

	identities := make([]string, 0, len(res.Split.Amounts))
	for id := range res.Split.Amounts {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MEMBER\tINDIVIDUAL\tSHARED\tOWES\tNOTIFIED\t")
	for _, id := range identities {
		detail := res.Split.Details[id]
		notified := "-"
		if status, ok := res.Notifications[id]; ok {
			notified = status.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", id,
			detail.Individual.StringFixed(2),
			detail.SharedShare.StringFixed(2),
			res.Split.Amounts[id].StringFixed(2),
			notified,
		)
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\t\t\n", res.Split.TotalBill.StringFixed(2))
	tw.Flush()
	fmt.Fprintln(w)

	if res.ExpenseID != "" {
		fmt.Fprintf(w, "Expense %s created.\n", res.ExpenseID)
	} else {
		fmt.Fprintln(w, "Dry run: nothing was submitted.")
	}
}
