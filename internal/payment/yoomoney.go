package payment

import (
	"errors"
	"net/url"

	"incoin_webapp/internal/domain"
)

const (
	yooMoneyBase   = "https://yoomoney.ru/to/"
	paymentComment = "Оплата VIP подписки INCOIN"
)

var ErrNoWallet = errors.New("payment wallet is not configured")

// YooMoney builds transfer links for manual VIP payment. Following a link
// never activates VIP; that is done out of band.
type YooMoney struct {
	wallet string
}

func NewYooMoney(wallet string) *YooMoney {
	return &YooMoney{wallet: wallet}
}

// Link is the RUB transfer URL for plan, labelled with the buyer's username.
func (y *YooMoney) Link(plan domain.VIPPlan, username string) (string, error) {
	if y.wallet == "" {
		return "", ErrNoWallet
	}
	price, ok := plan.Price(domain.CurrencyRUB)
	if !ok {
		return "", domain.ErrUnknownCurrency
	}

	q := url.Values{}
	q.Set("sum", price.String())
	q.Set("label", "VIP "+plan.Name+" - "+username)
	q.Set("comment", paymentComment)
	return yooMoneyBase + url.PathEscape(y.wallet) + "?" + q.Encode(), nil
}
