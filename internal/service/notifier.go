package service

import (
	"context"

	"incoin_webapp/internal/domain"

	"github.com/shopspring/decimal"
)

// Notifier delivers out-of-band messages about committed economic events.
// Calls happen after the commit and must not block for long.
type Notifier interface {
	ReferralCredited(ctx context.Context, referrer *domain.User, referred string, amount decimal.Decimal)
	VIPPurchased(ctx context.Context, buyer *domain.User, plan domain.VIPPlan)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) ReferralCredited(context.Context, *domain.User, string, decimal.Decimal) {}
func (NopNotifier) VIPPurchased(context.Context, *domain.User, domain.VIPPlan)             {}
