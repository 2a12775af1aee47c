// Package queue defines the messages exchanged over RabbitMQ and the
// publisher/consumer pair that moves them.
package queue

import "time"

// NFTTransferredEvent is published after a sale or gift commits.  It
// carries enough for a notifier to render a message without reading the
// database.
type NFTTransferredEvent struct {
	EventID       string    `json:"event_id"`
	NFTID         uint64    `json:"nft_id"`
	TokenID       string    `json:"token_id"`
	Name          string    `json:"name"`
	TransferType  string    `json:"transfer_type"`
	FromUserID    uint64    `json:"from_user_id"`
	FromUsername  string    `json:"from_username"`
	ToUserID      uint64    `json:"to_user_id"`
	ToUsername    string    `json:"to_username"`
	Price         string    `json:"price"`
	TransferredAt time.Time `json:"transferred_at"`
}
