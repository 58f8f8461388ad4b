package messaging

import (
	"encoding/json"
	"log"
	"time"

	"fabrica/protocol"
	"fabrica/store"
)

// Publisher sends one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// OutboxDrainer periodically sends pending outbox messages.
type OutboxDrainer struct {
	db        *store.DB
	publisher Publisher
	interval  time.Duration
	batch     int
	stopChan  chan struct{}
}

func NewOutboxDrainer(db *store.DB, publisher Publisher, interval time.Duration) *OutboxDrainer {
	return &OutboxDrainer{
		db:        db,
		publisher: publisher,
		interval:  interval,
		batch:     50,
		stopChan:  make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	go d.run()
}

func (d *OutboxDrainer) Stop() {
	select {
	case d.stopChan <- struct{}{}:
	default:
	}
}

func (d *OutboxDrainer) run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.Drain()
		}
	}
}

// Drain publishes one batch of pending messages and returns how many were
// sent. Expired envelopes are acknowledged without being published.
func (d *OutboxDrainer) Drain() int {
	msgs, err := d.db.ListPendingOutbox(d.batch)
	if err != nil {
		log.Printf("outbox: list pending: %v", err)
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if expired(msg.Payload) {
			log.Printf("outbox: dropping expired %s message %d", msg.MsgType, msg.ID)
			d.db.AckOutbox(msg.ID)
			continue
		}
		if err := d.publisher.Publish(msg.Topic, msg.Payload); err != nil {
			log.Printf("outbox: publish to %s failed: %v", msg.Topic, err)
			d.db.IncrementOutboxRetries(msg.ID)
			continue
		}
		d.db.AckOutbox(msg.ID)
		sent++
	}
	return sent
}

func expired(payload []byte) bool {
	var hdr protocol.RawHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return false
	}
	return protocol.IsExpiredHeader(&hdr)
}
