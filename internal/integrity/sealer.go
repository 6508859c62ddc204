// Package integrity computes and verifies tamper-evident seals over financial
// records. A seal is an HMAC-SHA256 digest of a record's canonical fields,
// keyed by a process-wide secret loaded once at startup. Direct database
// edits to a sealed field invalidate the seal; an attacker without the secret
// cannot recompute a valid one. The seal does not protect against deletion,
// nor against an attacker who also holds the secret.
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrEmptySecret is returned when constructing a Sealer without a secret;
// running with an empty key would make every seal trivially forgeable.
var ErrEmptySecret = errors.New("integrity: seal secret must not be empty")

// Sealer seals and verifies ledger records. Immutable after construction.
type Sealer struct {
	secret []byte
}

// NewSealer creates a Sealer from the deployment-wide secret.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Sealer{secret: []byte(secret)}, nil
}

// canonical builds the exact byte string the digest covers. Amounts are
// normalized to two decimal places so that equal monetary values always
// produce the same seal regardless of in-memory representation.
func canonicalCommission(recipientID string, amount decimal.Decimal, generation int) string {
	return recipientID + "|" + amount.StringFixed(2) + "|" + strconv.Itoa(generation)
}

func canonicalSale(saleID string, amount decimal.Decimal, affiliateID string) string {
	return saleID + "|" + amount.StringFixed(2) + "|" + affiliateID
}

func (s *Sealer) digest(canonical string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// SealCommission computes the seal for a commission ledger entry.
func (s *Sealer) SealCommission(recipientID string, amount decimal.Decimal, generation int) string {
	return s.digest(canonicalCommission(recipientID, amount, generation))
}

// VerifyCommission recomputes the seal from the entry's current stored fields
// and compares it in constant time against the stored seal.
func (s *Sealer) VerifyCommission(recipientID string, amount decimal.Decimal, generation int, seal string) bool {
	expected := s.SealCommission(recipientID, amount, generation)
	return hmac.Equal([]byte(expected), []byte(seal))
}

// SealSale computes the seal for a property sale record.
func (s *Sealer) SealSale(saleID string, amount decimal.Decimal, affiliateID string) string {
	return s.digest(canonicalSale(saleID, amount, affiliateID))
}

// VerifySale checks a property sale record against its stored seal.
func (s *Sealer) VerifySale(saleID string, amount decimal.Decimal, affiliateID string, seal string) bool {
	expected := s.SealSale(saleID, amount, affiliateID)
	return hmac.Equal([]byte(expected), []byte(seal))
}

// String implements fmt.Stringer without exposing the secret.
func (s *Sealer) String() string {
	return fmt.Sprintf("integrity.Sealer(keylen=%d)", len(s.secret))
}
