package messaging

import (
	"encoding/json"
	"log"

	"fabrica/protocol"
)

// EventHandler receives events published by other fabrica instances.
type EventHandler func(env *protocol.Envelope)

// Consumer subscribes to the events topic and passes on envelopes from peers.
// Events this instance published itself, and expired ones, are skipped.
type Consumer struct {
	client  *Client
	topic   string
	self    string
	handler EventHandler
}

func NewConsumer(client *Client, topic, self string, handler EventHandler) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		self:    self,
		handler: handler,
	}
}

func (c *Consumer) Start() error {
	return c.client.Subscribe(c.topic, c.handleMessage)
}

func (c *Consumer) handleMessage(_ string, payload []byte) {
	// Phase 1: routing header only
	var hdr struct {
		protocol.RawHeader
		Src protocol.Address `json:"src"`
	}
	if err := json.Unmarshal(payload, &hdr); err != nil {
		log.Printf("consumer: header decode error: %v", err)
		return
	}
	if hdr.Src.Node == c.self {
		return
	}
	if protocol.IsExpiredHeader(&hdr.RawHeader) {
		log.Printf("consumer: dropping expired message %s (type=%s)", hdr.ID, hdr.Type)
		return
	}

	// Phase 2: full envelope
	env, err := protocol.Decode(payload)
	if err != nil {
		log.Printf("consumer: %v", err)
		return
	}
	c.handler(env)
}
