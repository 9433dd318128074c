package service

import (
	"incoin_webapp/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	economyOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_operations_total",
			Help: "Economy and session operations by result",
		},
		[]string{"op", "result"},
	)
	slotOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slot_spins_total",
			Help: "Settled slot spins by outcome and currency",
		},
		[]string{"outcome", "currency"},
	)
	referralPayouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_payouts_total",
			Help: "Referral bonuses credited on top-up",
		},
	)
)

func init() {
	prometheus.MustRegister(economyOps)
	prometheus.MustRegister(slotOutcomes)
	prometheus.MustRegister(referralPayouts)
}

func track(op string, err error) {
	economyOps.WithLabelValues(op, domain.Code(err)).Inc()
}
