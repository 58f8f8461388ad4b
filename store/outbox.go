package store

import (
	"time"
)

type OutboxMessage struct {
	ID        int64
	Topic     string
	Payload   []byte
	MsgType   string
	SourceID  string
	Retries   int
	CreatedAt time.Time
	SentAt    *time.Time
}

func enqueueOutbox(c conn, topic string, payload []byte, msgType, sourceID string) error {
	_, err := c.exec(`INSERT INTO outbox (topic, payload, msg_type, source_id) VALUES (?, ?, ?, ?)`,
		topic, payload, msgType, sourceID)
	return err
}

func (db *DB) EnqueueOutbox(topic string, payload []byte, msgType, sourceID string) error {
	return enqueueOutbox(db.c(), topic, payload, msgType, sourceID)
}

// EnqueueOutbox writes the message in the same transaction as the change it describes.
func (tx *Tx) EnqueueOutbox(topic string, payload []byte, msgType, sourceID string) error {
	return enqueueOutbox(tx.c(), topic, payload, msgType, sourceID)
}

func (db *DB) ListPendingOutbox(limit int) ([]*OutboxMessage, error) {
	rows, err := db.c().query(`SELECT id, topic, payload, msg_type, source_id, retries, created_at FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []*OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var createdAt any
		if err := rows.Scan(&m.ID, &m.Topic, &m.Payload, &m.MsgType, &m.SourceID, &m.Retries, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func (db *DB) AckOutbox(id int64) error {
	_, err := db.c().exec(`UPDATE outbox SET sent_at=datetime('now','localtime') WHERE id=?`, id)
	return err
}

func (db *DB) IncrementOutboxRetries(id int64) error {
	_, err := db.c().exec(`UPDATE outbox SET retries=retries+1 WHERE id=?`, id)
	return err
}

// PendingOutboxCount reports how many messages are waiting to be published.
func (db *DB) PendingOutboxCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM outbox WHERE sent_at IS NULL`).Scan(&n)
	return n, err
}
