package pricefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/game"
	"incoin_webapp/internal/logger"

	"github.com/shopspring/decimal"
)

const historySize = 20

var stepScale = decimal.NewFromInt(10)

// Tick is one published price.
type Tick struct {
	Price     decimal.Decimal `json:"price"`
	Change    decimal.Decimal `json:"change"`
	Timestamp int64           `json:"timestamp"`
}

// Feed is a bounded random walk: every step moves the price by
// (r - 0.5) * 10 and clamps it to [PriceFloor, PriceCeiling].
type Feed struct {
	mu      sync.RWMutex
	price   decimal.Decimal
	history []decimal.Decimal
	subs    map[chan Tick]struct{}

	dice     game.Dice
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func New(interval time.Duration, dice game.Dice) *Feed {
	if dice == nil {
		dice = game.CryptoDice{}
	}
	return &Feed{
		price:    domain.StartPrice,
		history:  []decimal.Decimal{domain.StartPrice},
		subs:     make(map[chan Tick]struct{}),
		dice:     dice,
		interval: interval,
		now:      time.Now,
		log:      logger.With("component", "price_feed"),
	}
}

// Current is the price trades settle at.
func (f *Feed) Current() decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.price
}

// History returns up to the last 20 prices, oldest first.
func (f *Feed) History() []decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]decimal.Decimal(nil), f.history...)
}

// Step advances the walk once and publishes the tick.
func (f *Feed) Step() Tick {
	change := decimal.NewFromFloat((f.dice.Float64() - 0.5)).Mul(stepScale).Round(2)

	f.mu.Lock()
	next := Clamp(f.price.Add(change))
	tick := Tick{Price: next, Change: next.Sub(f.price), Timestamp: f.now().UnixMilli()}
	f.price = next
	f.history = append(f.history, next)
	if len(f.history) > historySize {
		f.history = f.history[len(f.history)-historySize:]
	}
	subs := make([]chan Tick, 0, len(f.subs))
	for ch := range f.subs {
		subs = append(subs, ch)
	}
	f.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- tick:
		default:
			// slow subscriber, drop
		}
	}
	return tick
}

// Run steps on every interval until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.log.Info("price feed started", "interval", f.interval.String())
	for {
		select {
		case <-ctx.Done():
			f.log.Info("price feed stopped")
			return
		case <-ticker.C:
			f.Step()
		}
	}
}

// Subscribe returns a buffered channel of ticks and its cancel func.
func (f *Feed) Subscribe(buffer int) (<-chan Tick, func()) {
	ch := make(chan Tick, buffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Clamp bounds p to the trading band.
func Clamp(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(domain.PriceFloor) {
		return domain.PriceFloor
	}
	if p.GreaterThan(domain.PriceCeiling) {
		return domain.PriceCeiling
	}
	return p
}
