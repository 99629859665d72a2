package identity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billsplit/internal/models"
)

const contactsJSON = `[
  {"name": "Alice", "phone": "+1 (555) 010-0001", "email_id": "alice@example.com"},
  {"name": "Bob", "phone": "555.010.0002", "email_id": "Bob@Example.com"},
  {"name": "No Email", "phone": "5550100003"},
  {"name": "No Phone", "email_id": "nophone@example.com"}
]`

func TestLoad(t *testing.T) {
	book, err := Load(strings.NewReader(contactsJSON))
	require.NoError(t, err)

	assert.Equal(t, 2, book.Len())
	assert.Equal(t, "alice@example.com", book.Resolve("+15550100001", "Alice"))
	assert.Equal(t, "alice@example.com", book.Resolve("+1 555 010 0001", "Alice"))
	assert.Equal(t, "Bob@Example.com", book.Resolve("5550100002", "Bob"))
}

func TestResolve_FallsBackToName(t *testing.T) {
	book, err := Load(strings.NewReader(contactsJSON))
	require.NoError(t, err)

	assert.Equal(t, "No Email", book.Resolve("5550100003", "No Email"))
	assert.Equal(t, "Stranger", book.Resolve("", "Stranger"))
}

func TestNilBook(t *testing.T) {
	var book *ContactBook
	var ids models.IdentityMap = book

	assert.NotPanics(t, func() {
		assert.Equal(t, "Alice", ids.Resolve("+15550100001", "Alice"))
	})
	_, ok := book.PhoneFor("alice@example.com")
	assert.False(t, ok)
	assert.Zero(t, book.Len())
}

func TestPhoneFor(t *testing.T) {
	book, err := Load(strings.NewReader(contactsJSON))
	require.NoError(t, err)

	phone, ok := book.PhoneFor("bob@example.com")
	assert.True(t, ok)
	assert.Equal(t, "555.010.0002", phone)

	_, ok = book.PhoneFor("nophone@example.com")
	assert.False(t, ok)
}

func TestLoad_InvalidJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{"Alice": "+15550100001"}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields empty book", func(t *testing.T) {
		book, err := LoadFile(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, ErrNoContacts)
		require.NotNil(t, book)
		assert.Equal(t, 0, book.Len())
		assert.Equal(t, "Alice", book.Resolve("+15550100001", "Alice"))
	})

	t.Run("reads contacts", func(t *testing.T) {
		path := filepath.Join(dir, "contacts.json")
		require.NoError(t, os.WriteFile(path, []byte(contactsJSON), 0o600))

		book, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, book.Len())
	})
}

func TestNewContactBook_LaterDuplicateWins(t *testing.T) {
	book := NewContactBook([]models.Contact{
		{Name: "Old", Phone: "+15550100001", Email: "old@example.com"},
		{Name: "New", Phone: "+1 555 010 0001", Email: "new@example.com"},
	})
	assert.Equal(t, "new@example.com", book.Resolve("+15550100001", "x"))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 010-0001", "+15550100001"},
		{"555.010.0001", "5550100001"},
		{"  +44 20 7946 0958 ", "+442079460958"},
		{"1+2", "12"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), tt.in)
	}
}
