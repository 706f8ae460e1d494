package sse

import (
	"time"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
)

// ProductNotifier is the interface services use to emit product events.
type ProductNotifier interface {
	NotifyProductCreated(p *models.Product)
	NotifyProductUpdated(p *models.Product)
	NotifyProductDeleted(p *models.Product)
}

// HubNotifier implements ProductNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
	now func() time.Time
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, now: time.Now}
}

func (n *HubNotifier) NotifyProductCreated(p *models.Product) {
	n.emit(EventProductCreated, p)
}

func (n *HubNotifier) NotifyProductUpdated(p *models.Product) {
	n.emit(EventProductUpdated, p)
}

func (n *HubNotifier) NotifyProductDeleted(p *models.Product) {
	n.emit(EventProductDeleted, p)
}

func (n *HubNotifier) emit(eventType EventType, p *models.Product) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&ProductEvent{
		Event:     eventType,
		ProductID: p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Category:  p.Category,
		Timestamp: n.now().UTC(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyProductCreated(p *models.Product) {}
func (n *NopNotifier) NotifyProductUpdated(p *models.Product) {}
func (n *NopNotifier) NotifyProductDeleted(p *models.Product) {}
