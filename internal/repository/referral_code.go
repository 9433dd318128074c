package repository

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"incoin_webapp/internal/domain"
)

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const referralCodeAttempts = 20

var errReferralCodeSpace = errors.New("could not generate a unique referral code")

// GenerateReferralCode returns "REF" followed by 8 random uppercase alphanumerics.
func GenerateReferralCode() (string, error) {
	var sb strings.Builder
	sb.Grow(len(domain.ReferralCodePrefix) + domain.ReferralCodeLength)
	sb.WriteString(domain.ReferralCodePrefix)

	max := big.NewInt(int64(len(referralAlphabet)))
	for i := 0; i < domain.ReferralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(referralAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeReferralCode upper-cases a code and accepts the "ref_" start
// parameter form used in bot links.
func NormalizeReferralCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) > 4 && strings.EqualFold(code[:4], "ref_") {
		code = code[4:]
	}
	return strings.ToUpper(code)
}
