package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	src := Server("fabrica-1")

	env, err := NewEnvelope(TypeStockAdjusted, src, Broadcast, &StockAdjusted{
		Kind:       "product",
		ItemID:     7,
		Name:       "Gear",
		Delta:      -3,
		StockAfter: 12,
		Reason:     "order processed",
		SourceKind: "order",
		SourceID:   42,
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Version != Version {
		t.Errorf("version = %d, want %d", env.Version, Version)
	}
	if env.Src != src {
		t.Errorf("src = %+v, want %+v", env.Src, src)
	}
	if env.ID == "" {
		t.Error("ID should not be empty")
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != TypeStockAdjusted {
		t.Errorf("decoded type = %q, want %q", decoded.Type, TypeStockAdjusted)
	}
	if decoded.ID != env.ID {
		t.Errorf("decoded id = %q, want %q", decoded.ID, env.ID)
	}

	var p StockAdjusted
	if err := decoded.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.Delta != -3 || p.StockAfter != 12 || p.SourceID != 42 {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	if _, err := Decode([]byte(`{"v":99,"type":"stock.low","p":{}}`)); err == nil {
		t.Error("expected error for unknown version")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestCorrelate(t *testing.T) {
	env, err := NewEnvelope(TypeOrderStatus, Server("a"), Broadcast, &OrderStatus{OrderID: 1, Status: "Processed"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Correlate("req-9").CorID != "req-9" {
		t.Errorf("cor = %q, want req-9", env.CorID)
	}
}

func TestProductionStatusTotalCost(t *testing.T) {
	env, _ := NewEnvelope(TypeProductionStatus, Server("a"), Broadcast, &ProductionStatus{
		ProductionOrderID: 3,
		Status:            "Completed",
	})
	var m map[string]any
	if err := json.Unmarshal(env.Payload, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["total_cost"] != nil {
		t.Errorf("total_cost = %v, want null", m["total_cost"])
	}

	env, _ = NewEnvelope(TypeProductionStatus, Server("a"), Broadcast, &ProductionStatus{
		ProductionOrderID: 3,
		Status:            "Completed",
		TotalCost:         decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
	})
	var p ProductionStatus
	if err := env.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if !p.TotalCost.Valid || !p.TotalCost.Decimal.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("total_cost = %v", p.TotalCost)
	}
}

func TestExpiry(t *testing.T) {
	env := &Envelope{ExpiresAt: time.Now().UTC().Add(-1 * time.Minute)}
	if !IsExpired(env) {
		t.Error("expected expired envelope to be detected")
	}

	env.ExpiresAt = time.Now().UTC().Add(10 * time.Minute)
	if IsExpired(env) {
		t.Error("expected future-expiry envelope to not be expired")
	}

	env.ExpiresAt = time.Time{}
	if IsExpired(env) {
		t.Error("expected zero-expiry envelope to not be expired")
	}
}

func TestExpiryHeader(t *testing.T) {
	hdr := &RawHeader{ExpiresAt: time.Now().UTC().Add(-1 * time.Second)}
	if !IsExpiredHeader(hdr) {
		t.Error("expected expired header to be detected")
	}

	hdr.ExpiresAt = time.Now().UTC().Add(5 * time.Minute)
	if IsExpiredHeader(hdr) {
		t.Error("expected future header to not be expired")
	}
}

func TestDefaultTTLFor(t *testing.T) {
	if ttl := DefaultTTLFor(TypeStockAdjusted); ttl != 30*time.Minute {
		t.Errorf("stock.adjusted TTL = %v, want 30m", ttl)
	}
	if ttl := DefaultTTLFor(TypeOrderStatus); ttl != 24*time.Hour {
		t.Errorf("order.status TTL = %v, want 24h", ttl)
	}
	if ttl := DefaultTTLFor("unknown.type"); ttl != FallbackTTL {
		t.Errorf("unknown TTL = %v, want %v", ttl, FallbackTTL)
	}

	env, _ := NewEnvelope(TypeStockLow, Server("a"), Broadcast, &StockLow{})
	if got := env.ExpiresAt.Sub(env.Timestamp); got != 2*time.Hour {
		t.Errorf("stock.low expiry window = %v, want 2h", got)
	}
}

func TestWireFormatKeys(t *testing.T) {
	env, _ := NewEnvelope(TypeStockLow, Server("n1"), Broadcast, &StockLow{ItemID: 1, Stock: 2, Threshold: 5, Shortfall: 3})
	data, _ := env.Encode()

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, k := range []string{"v", "type", "id", "src", "dst", "ts", "exp", "p"} {
		if _, ok := m[k]; !ok {
			t.Errorf("expected key %q in wire format", k)
		}
	}
	for _, k := range []string{"version", "payload", "timestamp", "expires_at", "source", "destination"} {
		if _, ok := m[k]; ok {
			t.Errorf("unexpected long key %q in wire format", k)
		}
	}
	if _, ok := m["cor"]; ok {
		t.Error("cor should be omitted when empty")
	}
}
