package ws

import (
	"encoding/json"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/pricefeed"
)

// Envelope wraps every frame on the feed.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// server → client
type PricePayload struct {
	pricefeed.Tick
	History []string `json:"history,omitempty"`
}

type LeaderboardPayload struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode builds a frame of type t.
func Encode(t string, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = b
	}
	return json.Marshal(env)
}
