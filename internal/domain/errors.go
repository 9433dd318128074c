package domain

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrPromoNotFound      = errors.New("promo code not found")
	ErrAlreadyRedeemed    = errors.New("promo code already redeemed by this user")
	ErrPromoExhausted     = errors.New("promo code max uses reached")
	ErrPromoCodeExists    = errors.New("promo code already exists")
	ErrInvalidPromoCode   = errors.New("invalid promo code")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrUnknownUpgrade     = errors.New("unknown upgrade")
	ErrUnknownPlan        = errors.New("unknown vip plan")
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrUnknownGame        = errors.New("unknown game")
	ErrInvalidTradeAction = errors.New("invalid trade direction")
	ErrNoSession          = errors.New("no active session")
)

// ErrUsernameTaken is what register reports; it is the same condition the
// repository raises on create.
var ErrUsernameTaken = ErrDuplicateUsername

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrDuplicateUsername, "username_taken"},
	{ErrUserNotFound, "user_not_found"},
	{ErrPromoNotFound, "promo_not_found"},
	{ErrAlreadyRedeemed, "already_redeemed"},
	{ErrPromoExhausted, "promo_exhausted"},
	{ErrPromoCodeExists, "promo_code_exists"},
	{ErrInvalidPromoCode, "invalid_promo_code"},
	{ErrInvalidUsername, "invalid_username"},
	{ErrUnknownUpgrade, "unknown_upgrade"},
	{ErrUnknownPlan, "unknown_plan"},
	{ErrUnknownCurrency, "unknown_currency"},
	{ErrUnknownGame, "unknown_game"},
	{ErrInvalidTradeAction, "invalid_trade_action"},
	{ErrNoSession, "no_session"},
}

// Code returns a stable machine-readable kind for err, "internal" for
// anything that is not a domain failure.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
