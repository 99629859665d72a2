package billdoc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBill = `{
  "total_amount": 100.0,
  "period_start": "2025-11-01",
  "period_end": "2025-12-01",
  "usage_period": "Nov 2025",
  "shared_costs": [{"description": "Base Plan", "amount": 20.0, "category": "Plan"}],
  "user_charges": [
    {"name": "Alice", "phone_number": "+15550100001", "total": 30.0,
     "items": [{"description": "Line", "amount": 25.0, "category": "Plan"},
               {"description": "Device", "amount": 5.0, "category": "Device"}]},
    {"name": "Bob", "phone_number": null, "total": 50.0, "items": []}
  ]
}`

func TestDecode(t *testing.T) {
	bill, issues, err := Decode(strings.NewReader(sampleBill))
	require.NoError(t, err)
	assert.Empty(t, issues)

	assert.True(t, bill.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "2025-11-01", bill.PeriodStart)
	assert.Equal(t, "2025-12-01", bill.PeriodEnd)
	assert.Equal(t, "Nov 2025", bill.UsagePeriod)
	require.Len(t, bill.SharedCosts, 1)
	assert.Equal(t, "Base Plan", bill.SharedCosts[0].Description)

	require.Len(t, bill.Participants, 2)
	alice := bill.Participants[0]
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, "+15550100001", alice.ExternalID)
	assert.Len(t, alice.Items, 2)
	assert.True(t, alice.IndividualTotal.Equal(decimal.NewFromInt(30)))

	bob := bill.Participants[1]
	assert.Empty(t, bob.ExternalID)
	assert.Nil(t, bob.Items)
}

func TestDecode_AmountsAsStrings(t *testing.T) {
	bill, _, err := Decode(strings.NewReader(`{"total_amount": "12.34", "user_charges": [{"name": "A", "total": "12.34"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "12.34", bill.TotalAmount.String())
}

func TestDecode_TotalMismatchIsAnIssue(t *testing.T) {
	doc := `{"total_amount": 40, "user_charges": [
	  {"name": "Alice", "total": 40, "items": [{"description": "Line", "amount": 35}]}
	]}`
	bill, issues, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "user_charges[0].total", issues[0].Field)
	assert.Contains(t, issues[0].String(), "Alice")
	// The declared total is kept, not corrected.
	assert.True(t, bill.Participants[0].IndividualTotal.Equal(decimal.NewFromInt(40)))
}

func TestDecode_MissingTotalUsesItemSum(t *testing.T) {
	doc := `{"total_amount": 7.5, "user_charges": [
	  {"name": "Alice", "items": [{"description": "a", "amount": 5}, {"description": "b", "amount": 2.5}]}
	]}`
	bill, issues, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.True(t, bill.Participants[0].IndividualTotal.Equal(decimal.RequireFromString("7.5")))
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{"missing total", `{"user_charges": []}`, "total_amount"},
		{"negative total", `{"total_amount": -1}`, "total_amount"},
		{"unnamed participant", `{"total_amount": 1, "user_charges": [{"name": "  ", "total": 1}]}`, "user_charges[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(strings.NewReader(tt.doc))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error = %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestDecode_NegativeLineIsAnIssue(t *testing.T) {
	doc := `{"total_amount": 40, "user_charges": [
		{"name": "A", "total": 50},
		{"name": "B", "items": [{"description": "Line credit", "amount": -15}, {"description": "Plan", "amount": 5}], "total": -10}
	]}`
	bill, issues, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, bill.Participants, 2)
	assert.True(t, bill.Participants[1].IndividualTotal.Equal(decimal.RequireFromString("-10")))
	require.Len(t, issues, 1)
	assert.Equal(t, "user_charges[1].total", issues[0].Field)
	assert.Contains(t, issues[0].Message, "negative")
}

func TestDecode_Malformed(t *testing.T) {
	for _, doc := range []string{`{"total_amount": `, `{"total_amount": "ten"}`, `[]`} {
		_, _, err := Decode(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrMalformed, doc)
		var verr *ValidationError
		assert.False(t, errors.As(err, &verr))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bill.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleBill), 0o600))

	bill, _, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, bill.Participants, 2)

	_, _, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
