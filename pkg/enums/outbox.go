package enums

// OutboxEventType names the domain events written to the outbox table.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderModified      OutboxEventType = "order.modified"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderArchived      OutboxEventType = "order.archived"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateCart  OutboxAggregateType = "cart"
)
