// Package identity maps bill participants to ledger identities using a
// contacts store.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmynk/billsplit/internal/models"
)

// ErrNoContacts is returned by LoadFile when the contacts file does not
// exist. The returned book is empty and usable.
var ErrNoContacts = errors.New("contacts file not found")

// Ensure ContactBook implements models.IdentityMap
var _ models.IdentityMap = (*ContactBook)(nil)

// ContactBook is a two-way phone <-> email lookup built from the contacts
// store. It is read-only after construction and safe for concurrent use.
type ContactBook struct {
	emailByPhone map[string]string
	phoneByEmail map[string]string
	contacts     []models.Contact
}

type contactRecord struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email_id"`
}

// NewContactBook builds a book from contacts. Contacts missing a phone or an
// email are skipped. Later duplicates override earlier ones.
func NewContactBook(contacts []models.Contact) *ContactBook {
	b := &ContactBook{
		emailByPhone: make(map[string]string, len(contacts)),
		phoneByEmail: make(map[string]string, len(contacts)),
	}
	for _, c := range contacts {
		phone := NormalizePhone(c.Phone)
		email := strings.TrimSpace(c.Email)
		if phone == "" || email == "" {
			continue
		}
		b.emailByPhone[phone] = email
		b.phoneByEmail[strings.ToLower(email)] = c.Phone
		b.contacts = append(b.contacts, models.Contact{Name: c.Name, Phone: c.Phone, Email: email})
	}
	return b
}

// Load reads a contacts document: a JSON list of {name, phone, email_id}.
func Load(r io.Reader) (*ContactBook, error) {
	var records []contactRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}

	contacts := make([]models.Contact, len(records))
	for i, rec := range records {
		contacts[i] = models.Contact{Name: rec.Name, Phone: rec.Phone, Email: rec.Email}
	}
	return NewContactBook(contacts), nil
}

// LoadFile reads the contacts file at path. A missing file yields an empty
// book together with ErrNoContacts.
func LoadFile(path string) (*ContactBook, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewContactBook(nil), ErrNoContacts
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open contacts: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Resolve returns the email registered for the phone number rawID, or
// fallbackName when the number is unknown. A nil book knows no numbers.
func (b *ContactBook) Resolve(rawID, fallbackName string) string {
	if b == nil {
		return fallbackName
	}
	if email, ok := b.emailByPhone[NormalizePhone(rawID)]; ok {
		return email
	}
	return fallbackName
}

// PhoneFor returns the phone number registered for an email.
func (b *ContactBook) PhoneFor(email string) (string, bool) {
	if b == nil {
		return "", false
	}
	phone, ok := b.phoneByEmail[strings.ToLower(strings.TrimSpace(email))]
	return phone, ok
}

// Len returns the number of usable contacts.
func (b *ContactBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.contacts)
}

// NormalizePhone strips formatting from a phone number, keeping digits and
// a leading '+'. "(555) 010-0001" and "555.010.0001" normalize the same.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var sb strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && i == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
