package engine

const (
	EventOrderStatusChanged EventType = iota + 1
	EventProductionStatusChanged
	EventStockAdjusted
	EventStockLow
	EventPeerStockAdjusted
	EventEntityChanged
	EventMessagingConnected
	EventMessagingDisconnected
	EventCacheConnected
	EventCacheDisconnected
)

// --- Event payloads ---

type StatusChangedEvent struct {
	ID        int64
	OldStatus string
	NewStatus string
	Created   bool
	Actor     string
}

type StockAdjustedEvent struct {
	Kind       string
	ItemID     int64
	Name       string
	Delta      int
	StockAfter int
	Threshold  int
	Reason     string
	SourceKind string
	SourceID   int64
	Actor      string
}

type StockLowEvent struct {
	Kind      string
	ItemID    int64
	Name      string
	Stock     int
	Threshold int
}

// PeerStockAdjustedEvent is a stock change reported by another instance.
type PeerStockAdjustedEvent struct {
	Source string
	Kind   string
	ItemID int64
}

type EntityChangedEvent struct {
	Entity string
	ID     int64
	Action string // "created", "updated", "deleted", "rated"
	Detail string
	Actor  string
}

type ConnectionEvent struct {
	Detail string
}
