// Package testutil provides test data builders and collaborator fakes.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/fluxohq/fluxo/pkg/protocol"
)

// FakeInventory is an in-memory inventory collaborator recording every
// mutation.
type FakeInventory struct {
	mu        sync.Mutex
	Products  map[string]*protocol.Product
	Movements []protocol.StockMovement
}

func NewFakeInventory(products ...*protocol.Product) *FakeInventory {
	byID := make(map[string]*protocol.Product)
	for _, product := range products {
		byID[product.ID] = product
	}

	return &FakeInventory{Products: byID}
}

func (f *FakeInventory) GetProduct(_ context.Context, organizationID, productID string) (*protocol.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.Products[productID]
	if !ok || product.OrganizationID != organizationID {
		return nil, fmt.Errorf("product %s not found", productID)
	}

	copied := *product

	return &copied, nil
}

func (f *FakeInventory) SetStock(_ context.Context, organizationID, productID string, newStock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.Products[productID]
	if !ok || product.OrganizationID != organizationID {
		return fmt.Errorf("product %s not found", productID)
	}

	product.Stock = newStock

	return nil
}

func (f *FakeInventory) RecordMovement(_ context.Context, movement protocol.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Movements = append(f.Movements, movement)

	return nil
}

// FakeSales records created sales.
type FakeSales struct {
	mu    sync.Mutex
	Sales []protocol.Sale
}

func (f *FakeSales) CreateSale(_ context.Context, sale protocol.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sales = append(f.Sales, sale)

	return nil
}

// FakeNotifications records created notifications.
type FakeNotifications struct {
	mu            sync.Mutex
	Notifications []protocol.Notification
}

func (f *FakeNotifications) CreateNotification(_ context.Context, notification protocol.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Notifications = append(f.Notifications, notification)

	return nil
}

// SentMessage is one message captured by FakeMessenger.
type SentMessage struct {
	OrganizationID string
	To             string
	Text           string
}

// FakeMessenger records outbound messages.
type FakeMessenger struct {
	mu       sync.Mutex
	Messages []SentMessage
}

func (f *FakeMessenger) SendMessage(_ context.Context, organizationID, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Messages = append(f.Messages, SentMessage{OrganizationID: organizationID, To: to, Text: text})

	return nil
}

// DealUpdate is one CRM call captured by FakeCRM.
type DealUpdate struct {
	OrganizationID string
	DealID         string
	Status         string
}

// FakeCRM records deal status updates.
type FakeCRM struct {
	mu      sync.Mutex
	Updates []DealUpdate
}

func (f *FakeCRM) UpdateDealStatus(_ context.Context, organizationID, dealID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Updates = append(f.Updates, DealUpdate{OrganizationID: organizationID, DealID: dealID, Status: status})

	return nil
}

// FakeAI returns a canned completion.
type FakeAI struct {
	Response string
	Err      error
	Calls    int
}

func (f *FakeAI) Complete(_ context.Context, promptTemplate, _ string, _ map[string]any) (string, error) {
	f.Calls++

	if f.Err != nil {
		return "", f.Err
	}

	if f.Response != "" {
		return f.Response, nil
	}

	return "completion for: " + promptTemplate, nil
}

// MutationCount sums every side effect the fakes observed. Simulation
// purity tests assert it stays at zero.
func MutationCount(inventory *FakeInventory, sales *FakeSales, notifications *FakeNotifications, messenger *FakeMessenger, crm *FakeCRM) int {
	total := 0

	if inventory != nil {
		total += len(inventory.Movements)
	}

	if sales != nil {
		total += len(sales.Sales)
	}

	if notifications != nil {
		total += len(notifications.Notifications)
	}

	if messenger != nil {
		total += len(messenger.Messages)
	}

	if crm != nil {
		total += len(crm.Updates)
	}

	return total
}
