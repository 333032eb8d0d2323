package enum

// ── Search sort options (sent verbatim as sortOption) ──

const (
	SortBestMatch             = "bestMatch"
	SortPriceLowToHigh        = "priceLowToHigh"
	SortPriceHighToLow        = "priceHighToLow"
	SortDeliveryPrice         = "deliveryPrice"
	SortEstimatedDeliveryTime = "estimatedDeliveryTime"
)

// ── Order status labels (opaque to the client, remote-authoritative) ──
// Known values are listed for display and CLI help only; nothing validates
// a status against this list.

const (
	OrderStatusPlaced         = "placed"
	OrderStatusPaid           = "paid"
	OrderStatusInProgress     = "inProgress"
	OrderStatusOutForDelivery = "outForDelivery"
	OrderStatusDelivered      = "delivered"
)

// ── Notification levels ──

const (
	NotificationSuccess = "success"
	NotificationError   = "error"
)

// ── WebSocket event types ──

const (
	EventNotification = "notification"
)

// ── Session storage backends ──

const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
)
