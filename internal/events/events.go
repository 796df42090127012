package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel carrying escrow lifecycle events.
const Channel = "escrow_events"

// Event types published by the engine.
const (
	TypeEscrowInitialized = "escrow_initialized"
	TypeDepositReceived   = "deposit_received"
	TypeDepositConfirmed  = "deposit_confirmed"
	TypeEscrowSettled     = "escrow_settled"
	TypeEscrowForfeited   = "escrow_forfeited"
)

// Event is one escrow lifecycle notification pushed to the game server.
type Event struct {
	Type      string `json:"type"`
	MatchKey  string `json:"match_key"`
	Address   string `json:"address"`
	Actor     string `json:"actor,omitempty"`
	Winner    string `json:"winner,omitempty"`
	Payout    uint64 `json:"payout,omitempty"`
	Fee       uint64 `json:"fee,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher pushes escrow events onto the redis channel. Publishing is
// best-effort: a failed publish is logged, never propagated, because
// the operation that produced the event has already committed.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates an event publisher backed by the given client.
// A nil client yields a publisher that drops everything.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends one event on the escrow_events channel.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil || p.rdb == nil {
		return
	}
	ev.Timestamp = time.Now().Unix()

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] failed to marshal %s event: %v", ev.Type, err)
		return
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		log.Printf("[EVENTS] failed to publish %s event for match %s: %v", ev.Type, ev.MatchKey, err)
		return
	}
	log.Printf("[EVENTS] published %s match=%s", ev.Type, ev.MatchKey)
}
