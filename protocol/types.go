package protocol

// Event types published on the events topic.
const (
	TypeStockAdjusted    = "stock.adjusted"
	TypeStockLow         = "stock.low"
	TypeOrderStatus      = "order.status"
	TypeProductionStatus = "production.status"
)

// Roles for Address.Role.
const (
	RoleServer   = "server"
	RoleConsumer = "consumer"
)

// Protocol version.
const Version = 1
