package protocol

import "time"

// Default TTLs by event type. Stock snapshots go stale quickly; status
// changes stay relevant to downstream systems for longer.
var defaultTTLs = map[string]time.Duration{
	TypeStockAdjusted: 30 * time.Minute,
	TypeStockLow:      2 * time.Hour,

	TypeOrderStatus:      24 * time.Hour,
	TypeProductionStatus: 24 * time.Hour,
}

// FallbackTTL is used when no specific TTL is configured.
const FallbackTTL = 10 * time.Minute

// DefaultTTLFor returns the default TTL for a message type.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// IsExpired returns true if the envelope has passed its expiry time.
func IsExpired(env *Envelope) bool {
	return expiredAt(env.ExpiresAt, time.Now().UTC())
}

// IsExpiredHeader checks expiry using only the raw header.
func IsExpiredHeader(hdr *RawHeader) bool {
	return expiredAt(hdr.ExpiresAt, time.Now().UTC())
}

func expiredAt(exp, now time.Time) bool {
	if exp.IsZero() {
		return false
	}
	return now.After(exp)
}
