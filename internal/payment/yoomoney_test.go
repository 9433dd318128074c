package payment

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"incoin_webapp/internal/domain"
)

func TestYooMoneyLink(t *testing.T) {
	plan, _ := domain.FindVIPPlan(domain.VIPMonth)
	link, err := NewYooMoney("4100119386951023").Link(plan, "alice")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if !strings.HasPrefix(link, "https://yoomoney.ru/to/4100119386951023?") {
		t.Fatalf("link = %s", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("sum") != "1800" {
		t.Fatalf("sum = %q", q.Get("sum"))
	}
	if q.Get("label") != "VIP 1 month VIP - alice" {
		t.Fatalf("label = %q", q.Get("label"))
	}
	if q.Get("comment") != paymentComment {
		t.Fatalf("comment = %q", q.Get("comment"))
	}
}

func TestYooMoneyLinkWithoutWallet(t *testing.T) {
	plan, _ := domain.FindVIPPlan(domain.VIPWeek)
	if _, err := NewYooMoney("").Link(plan, "alice"); !errors.Is(err, ErrNoWallet) {
		t.Fatalf("err = %v", err)
	}
}
