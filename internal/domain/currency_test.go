package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10", "10", false},
		{" 0.5 ", "0.5", false},
		{"-3", "-3", false},
		{"0.00000001", "0.00000001", false},
		{"0.10000000000", "0.1", false},
		{"1e3", "1000", false},
		{"50000000000000", "50000000000000", false},
		{"", "", true},
		{"abc", "", true},
		{"NaN", "", true},
		{"Inf", "", true},
		{"0.000000001", "", true},
		{"1e-9", "", true},
		{"1e-5000000", "", true},
		{"1e5000000", "", true},
		{"-1e5000000", "", true},
		{"50000000000000.01", "", true},
		{"1" + strings.Repeat("0", 80), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmount(%q) err = %v; want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Fatalf("ParseAmount(%q) = %s; want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{"", CurrencyINCOIN, false},
		{"usd", CurrencyUSD, false},
		{" RUB ", CurrencyRUB, false},
		{"EUR", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCurrency(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCurrency(%q) = %q, %v", tt.in, got, err)
		}
	}
}
