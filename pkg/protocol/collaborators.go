package protocol

import (
	"context"
	"time"
)

// External subsystems the engine's actions call into. The engine owns none
// of these; each is implemented by another service and injected at wiring
// time. Every call is scoped by organization id.

// Product is the inventory collaborator's view of a product.
type Product struct {
	ID             string
	OrganizationID string
	Name           string
	Stock          int
}

// StockMovement is the before/after audit record written alongside a stock
// mutation.
type StockMovement struct {
	ProductID      string
	OrganizationID string
	Quantity       int
	BeforeStock    int
	AfterStock     int
	Reason         string
	OccurredAt     time.Time
}

// Inventory mutates product stock.
type Inventory interface {
	GetProduct(ctx context.Context, organizationID, productID string) (*Product, error)
	SetStock(ctx context.Context, organizationID, productID string, newStock int) error
	RecordMovement(ctx context.Context, movement StockMovement) error
}

// Sale is a sale row created by the CREATE_SALE action. Payment and delivery
// statuses default to pending.
type Sale struct {
	OrganizationID string
	ProductID      string
	CustomerID     string
	Quantity       int
	Price          float64
	PaymentStatus  string
	DeliveryStatus string
}

// Sales creates sale records.
type Sales interface {
	CreateSale(ctx context.Context, sale Sale) error
}

// Notification is an in-app notification row.
type Notification struct {
	OrganizationID string
	UserID         string
	Title          string
	Message        string
	Priority       string
}

// Notifications dispatches in-app notifications.
type Notifications interface {
	CreateNotification(ctx context.Context, notification Notification) error
}

// Messenger delivers outbound WhatsApp messages.
type Messenger interface {
	SendMessage(ctx context.Context, organizationID, to, text string) error
}

// CRM updates deal state.
type CRM interface {
	UpdateDealStatus(ctx context.Context, organizationID, dealID, status string) error
}

// AI produces a completion for an ai node. The engine substitutes a static
// echo on simulated runs without consulting the client.
type AI interface {
	Complete(ctx context.Context, promptTemplate, model string, data map[string]any) (string, error)
}
