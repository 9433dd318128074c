package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingHash   = errors.New("init data has no hash")
	ErrBadSignature  = errors.New("init data signature mismatch")
	ErrStaleAuthDate = errors.New("init data auth_date is stale")
)

const (
	maxAuthAge = time.Hour
	maxSkew    = 5 * time.Minute
)

// ValidateInitData verifies the WebApp init_data signature and rejects data
// older than one hour to limit replay.
func ValidateInitData(initData, botToken string, now time.Time) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrBadSignature
	}
	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrBadSignature
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrStaleAuthDate
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > maxAuthAge || age < -maxSkew {
		return nil, ErrStaleAuthDate
	}
	return values, nil
}

// Sign computes the data-check signature of values (hash excluded).
func Sign(values url.Values, botToken string) []byte {
	lines := make([]string, 0, len(values))
	for k, v := range values {
		if k == "hash" {
			continue
		}
		lines = append(lines, k+"="+strings.Join(v, ""))
	}
	sort.Strings(lines)

	secret := sha256.Sum256([]byte(botToken))
	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(strings.Join(lines, "\n")))
	return h.Sum(nil)
}
