package game

import (
	"github.com/shopspring/decimal"
)

const (
	SymbolCherry  = "🍒"
	SymbolLemon   = "🍋"
	SymbolOrange  = "🍊"
	SymbolDiamond = "💎"
	SymbolSeven   = "7️⃣"
	SymbolStar    = "⭐"
)

var SlotSymbols = []string{SymbolCherry, SymbolLemon, SymbolOrange, SymbolDiamond, SymbolSeven, SymbolStar}

// SlotOutcome is one band of the payout table. Outcomes are drawn by
// cumulative probability in table order.
type SlotOutcome struct {
	Name        string          `json:"name"`
	Probability float64         `json:"probability"`
	Multiplier  decimal.Decimal `json:"multiplier"` // applied to the bet; negative for losses
	Win         bool            `json:"win"`
}

var (
	winTopMultiplier       = decimal.NewFromInt(10)
	winSecondaryMultiplier = decimal.NewFromInt(5)
	winMultiplier          = decimal.NewFromInt(2)
)

// DefaultSlotTable: 5% three of a kind, 10% small loss, 85% full loss.
func DefaultSlotTable() []SlotOutcome {
	return []SlotOutcome{
		{Name: "jackpot", Probability: 0.05, Win: true},
		{Name: "small_loss", Probability: 0.10, Multiplier: decimal.RequireFromString("-0.1")},
		{Name: "loss", Probability: 0.85, Multiplier: decimal.NewFromInt(-1)},
	}
}

// SlotSpin is the settled result of one spin.
type SlotSpin struct {
	Reels      [3]string       `json:"reels"`
	Outcome    string          `json:"outcome"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Delta      decimal.Decimal `json:"delta"`
	Win        bool            `json:"win"`
}

type SlotMachine struct {
	dice  Dice
	table []SlotOutcome
}

func NewSlotMachine(dice Dice) *SlotMachine {
	if dice == nil {
		dice = CryptoDice{}
	}
	return &SlotMachine{dice: dice, table: DefaultSlotTable()}
}

// Spin draws an outcome and returns the signed balance delta for bet.
func (m *SlotMachine) Spin(bet decimal.Decimal) SlotSpin {
	r := m.dice.Float64()

	outcome := m.table[len(m.table)-1]
	cumulative := 0.0
	for _, o := range m.table {
		cumulative += o.Probability
		if r < cumulative {
			outcome = o
			break
		}
	}

	spin := SlotSpin{Outcome: outcome.Name, Win: outcome.Win}
	if outcome.Win {
		sym := SlotSymbols[m.dice.Intn(len(SlotSymbols))]
		spin.Reels = [3]string{sym, sym, sym}
		spin.Multiplier = SymbolMultiplier(sym)
	} else {
		spin.Reels = m.losingReels()
		spin.Multiplier = outcome.Multiplier
	}
	spin.Delta = bet.Mul(spin.Multiplier)
	return spin
}

// SymbolMultiplier is the payout of three matching symbols.
func SymbolMultiplier(sym string) decimal.Decimal {
	switch sym {
	case SymbolSeven:
		return winTopMultiplier
	case SymbolDiamond:
		return winSecondaryMultiplier
	default:
		return winMultiplier
	}
}

// losingReels never shows three of a kind.
func (m *SlotMachine) losingReels() [3]string {
	n := len(SlotSymbols)
	a := m.dice.Intn(n)
	b := m.dice.Intn(n)
	c := m.dice.Intn(n)
	if a == b && b == c {
		c = (c + 1) % n
	}
	return [3]string{SlotSymbols[a], SlotSymbols[b], SlotSymbols[c]}
}

// ExpectedReturn is the mean delta per unit bet.
func (m *SlotMachine) ExpectedReturn() decimal.Decimal {
	var winAvg decimal.Decimal
	for _, s := range SlotSymbols {
		winAvg = winAvg.Add(SymbolMultiplier(s))
	}
	winAvg = winAvg.Div(decimal.NewFromInt(int64(len(SlotSymbols))))

	total := decimal.Zero
	for _, o := range m.table {
		mult := o.Multiplier
		if o.Win {
			mult = winAvg
		}
		total = total.Add(decimal.NewFromFloat(o.Probability).Mul(mult))
	}
	return total
}
