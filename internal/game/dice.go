package game

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// Dice is the randomness source of wager outcomes.
type Dice interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

const floatPrecision = 1_000_000

// CryptoDice draws from crypto/rand.
type CryptoDice struct{}

func (CryptoDice) Float64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(floatPrecision))
	if err != nil {
		// a failed read counts as the worst outcome for the player
		return float64(floatPrecision-1) / floatPrecision
	}
	return float64(n.Int64()) / floatPrecision
}

func (CryptoDice) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// ScriptedDice replays fixed values. Tests use it to pin outcomes.
type ScriptedDice struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
}

func (d *ScriptedDice) Float64() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Floats) == 0 {
		return 0.99
	}
	v := d.Floats[0]
	d.Floats = d.Floats[1:]
	return v
}

func (d *ScriptedDice) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Ints) == 0 || n <= 0 {
		return 0
	}
	v := d.Ints[0] % n
	d.Ints = d.Ints[1:]
	return v
}
