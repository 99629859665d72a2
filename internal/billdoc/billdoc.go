// Package billdoc decodes the structured bill produced by the
// document-understanding service and validates it before it reaches the
// allocator.
package billdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/calculator"
	"github.com/mmynk/billsplit/internal/models"
)

// ErrMalformed is returned when the document is not valid bill JSON.
var ErrMalformed = errors.New("malformed bill document")

// ValidationError reports a structurally invalid bill document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bill: %s: %s", e.Field, e.Reason)
}

// Issue is a non-fatal inconsistency found in an otherwise valid document.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

type document struct {
	TotalAmount *decimal.Decimal `json:"total_amount"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	UsagePeriod string           `json:"usage_period"`
	SharedCosts []lineItem       `json:"shared_costs"`
	UserCharges []userCharge     `json:"user_charges"`
}

type lineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

type userCharge struct {
	Name        string           `json:"name"`
	PhoneNumber *string          `json:"phone_number"`
	Items       []lineItem       `json:"items"`
	Total       *decimal.Decimal `json:"total"`
}

// Decode reads a bill document and converts it to a BillSnapshot.
//
// A document missing total_amount, with a negative total_amount, or with an
// unnamed participant is rejected with *ValidationError. A participant
// without a total gets the sum of its items. Inconsistencies that do not
// block allocation, such as a line whose credits leave it negative, are
// returned as issues.
func Decode(r io.Reader) (models.BillSnapshot, []Issue, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return models.BillSnapshot{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if doc.TotalAmount == nil {
		return models.BillSnapshot{}, nil, &ValidationError{Field: "total_amount", Reason: "required"}
	}
	if doc.TotalAmount.IsNegative() {
		return models.BillSnapshot{}, nil, &ValidationError{Field: "total_amount", Reason: "must not be negative"}
	}

	bill := models.BillSnapshot{
		TotalAmount: *doc.TotalAmount,
		SharedCosts: convertItems(doc.SharedCosts),
		PeriodStart: doc.PeriodStart,
		PeriodEnd:   doc.PeriodEnd,
		UsagePeriod: doc.UsagePeriod,
	}

	var issues []Issue
	for i, uc := range doc.UserCharges {
		field := fmt.Sprintf("user_charges[%d]", i)
		name := strings.TrimSpace(uc.Name)
		if name == "" {
			return models.BillSnapshot{}, nil, &ValidationError{Field: field + ".name", Reason: "required"}
		}

		items := convertItems(uc.Items)
		itemSum := calculator.SumItems(items)

		total := itemSum
		if uc.Total != nil {
			total = *uc.Total
			if total.IsNegative() {
				issues = append(issues, Issue{
					Field:   field + ".total",
					Message: fmt.Sprintf("total %s for %s is negative (credits exceed charges)", total, name),
				})
			}
			if len(items) > 0 && !total.Equal(itemSum) {
				issues = append(issues, Issue{
					Field:   field + ".total",
					Message: fmt.Sprintf("total %s for %s does not match sum of items %s", total, name, itemSum),
				})
			}
		}

		var phone string
		if uc.PhoneNumber != nil {
			phone = strings.TrimSpace(*uc.PhoneNumber)
		}

		bill.Participants = append(bill.Participants, models.ParticipantCharge{
			Name:            name,
			ExternalID:      phone,
			Items:           items,
			IndividualTotal: total,
		})
	}

	return bill, issues, nil
}

// LoadFile decodes the bill document at path.
func LoadFile(path string) (models.BillSnapshot, []Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.BillSnapshot{}, nil, fmt.Errorf("bill not found at %s: %w", path, err)
		}
		return models.BillSnapshot{}, nil, fmt.Errorf("failed to open bill: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

func convertItems(items []lineItem) []models.LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]models.LineItem, len(items))
	for i, item := range items {
		out[i] = models.LineItem{
			Description: item.Description,
			Amount:      item.Amount,
			Category:    item.Category,
		}
	}
	return out
}
