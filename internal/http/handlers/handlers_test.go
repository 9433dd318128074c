package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"incoin_webapp/internal/domain"
)

func TestAmountAcceptsNumberAndString(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{`{"amount": 150}`, "150"},
		{`{"amount": 12.5}`, "12.5"},
		{`{"amount": "99.99"}`, "99.99"},
		{`{"amount": null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var req TopUpRequest
		if err := json.Unmarshal([]byte(tt.in), &req); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if req.Amount != tt.want {
			t.Errorf("%s: amount = %q, want %q", tt.in, req.Amount, tt.want)
		}
	}

	var req TopUpRequest
	if err := json.Unmarshal([]byte(`{"amount": true}`), &req); err == nil {
		t.Fatal("boolean amount should not decode")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrUnknownUpgrade, http.StatusBadRequest},
		{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{domain.ErrPromoExhausted, http.StatusConflict},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrNoSession, http.StatusNotFound},
		{fmt.Errorf("commit: %w", domain.ErrInsufficientFunds), http.StatusPaymentRequired},
		{fmt.Errorf("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
