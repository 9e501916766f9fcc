package application

const (
	// eventTypeUserRegistered is emitted when a user account is created.
	eventTypeUserRegistered = "user.registered"
	// eventTypeOrderPlaced is emitted in the checkout transaction.
	eventTypeOrderPlaced = "order.placed"
	// eventTypeOrderStatusChanged is emitted when an admin sets an order status.
	eventTypeOrderStatusChanged = "order.status_changed"
)
