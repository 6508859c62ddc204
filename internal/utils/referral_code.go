package utils

import "fmt"

// Referral codes look like KAL-7XQ2ZD. Uppercase letters and digits only,
// so codes survive being read over the phone.
const (
	referralCodePrefix   = "KAL-"
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength   = 6
)

// NewReferralCode generates a candidate referral code. Uniqueness is the
// caller's responsibility (retry against the unique index on collision).
func NewReferralCode() (string, error) {
	code, err := GenerateSecureCode(referralCodeAlphabet, referralCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return referralCodePrefix + code, nil
}

// NewSaleID generates a property sale identifier of the form KAL-TX-XXXXXXXX.
func NewSaleID() (string, error) {
	code, err := GenerateSecureCode(referralCodeAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("failed to generate sale id: %w", err)
	}
	return "KAL-TX-" + code, nil
}

// NewWithdrawalID generates a withdrawal identifier of the form WTH-XXXXXXXXXXXX.
func NewWithdrawalID() (string, error) {
	code, err := GenerateSecureRandomString(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate withdrawal id: %w", err)
	}
	return "WTH-" + code, nil
}
