package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether addr is a 0x-prefixed 20-byte hex address.
func ValidAddress(addr string) bool {
	return addressRe.MatchString(addr)
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Account is an authenticated participant. The address is generated at
// signup and is the identity every component keys on.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAudit builds an audit entry stamped with a fresh id and timestamp.
func NewAudit(addr, rail, direction string, amount int64, reason, reference string) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New().String(),
		Address:   addr,
		Rail:      rail,
		Direction: direction,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
		CreatedAt: time.Now(),
	}
}

// AuditEntry mirrors every balance change so external indexers can consume
// the stream without reading component state directly.
type AuditEntry struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Rail      string    `json:"rail"` // native | token
	Direction string    `json:"direction"` // credit | debit
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RailNative = "native"
	RailToken  = "token"

	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)
