package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediNotify/internal/models"
	"MediNotify/internal/retry"
)

// Event trigger names resolved against the templates table.
const (
	TriggerOrderConfirmation = "order_confirmation"
	TriggerOrderShipped      = "order_shipped"
)

// TemplateResolver resolves the active template for an event trigger.
type TemplateResolver interface {
	GetTemplateByTrigger(ctx context.Context, trigger string) (*models.Template, error)
}

// Enqueuer queues one email dispatch. Implemented by dispatch.Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, recipientEmail, recipientName string, templateID uuid.UUID, contextData map[string]interface{}) bool
}

// Orchestrator maps an order status transition to the channels and templates
// that fire for it. Each call handles exactly one target status; nothing
// serializes transitions against each other, the caller owns ordering.
type Orchestrator struct {
	Templates TemplateResolver
	Queue     Enqueuer

	SendSMS      SimSender
	SendWhatsApp SimSender

	// OnRecord receives one denormalized record per channel attempt,
	// synchronously, for the admin notification feed.
	OnRecord func(models.NotificationRecord)

	RetryAttempts int
	// RetryBase is the linear backoff base between simulated-channel
	// attempts. Zero means no delay, which tests rely on.
	RetryBase time.Duration

	Log *zap.Logger
}

func (o *Orchestrator) record(rec models.NotificationRecord) {
	rec.Timestamp = time.Now()
	if o.OnRecord != nil {
		o.OnRecord(rec)
	}
}

func (o *Orchestrator) attempts() int {
	if o.RetryAttempts > 0 {
		return o.RetryAttempts
	}
	return 3
}

// Notify fires the notifications for one order status transition.
func (o *Orchestrator) Notify(ctx context.Context, status models.OrderStatus, order models.Order) {
	switch status {
	case models.OrderPending:
		o.confirmation(ctx, order)
	case models.OrderShipped:
		o.shipped(ctx, order)
	case models.OrderDelivered:
		o.delivered(ctx, order)
	default:
		o.Log.Warn("unknown order status, no notification fired",
			zap.String("status", string(status)),
			zap.String("order_id", order.ID),
		)
	}
}

func (o *Orchestrator) confirmation(ctx context.Context, order models.Order) {
	items := make([]map[string]interface{}, len(order.Items))
	for i, it := range order.Items {
		items[i] = map[string]interface{}{
			"name":     it.Name,
			"quantity": it.Quantity,
			"price":    it.Price,
		}
	}

	ok := o.enqueueEmail(ctx, TriggerOrderConfirmation, order, map[string]interface{}{
		"orderId":      order.ID,
		"customerName": order.CustomerName,
		"grandTotal":   order.GrandTotal,
		"items":        items,
	})

	o.record(models.NotificationRecord{
		Channel:   models.ChannelEmail,
		Type:      models.TypeConfirmation,
		Recipient: order.CustomerEmail,
		Status:    recordStatus(ok),
		Details:   fmt.Sprintf("Order %s confirmation email", order.ID),
	})
}

func (o *Orchestrator) shipped(ctx context.Context, order models.Order) {
	if order.TrackingNumber == "" || order.Carrier == "" {
		// caller must supply tracking info first; no partial fan-out
		o.Log.Warn("shipped transition without tracking info, aborting",
			zap.String("order_id", order.ID))
		return
	}

	trackingURL := TrackingURL(order.Carrier, order.TrackingNumber)

	smsText := fmt.Sprintf("Your order %s shipped via %s. Track it: %s",
		order.ID, order.Carrier, trackingURL)
	smsOK := retry.DoWithDelay(ctx, func() error {
		return o.SendSMS(ctx, order.CustomerPhone, smsText)
	}, o.attempts(), o.RetryBase)

	o.record(models.NotificationRecord{
		Channel:   models.ChannelSMS,
		Type:      models.TypeShipped,
		Recipient: order.CustomerPhone,
		Status:    recordStatus(smsOK),
		Details:   fmt.Sprintf("Shipment SMS via %s", order.Carrier),
	})

	emailOK := o.enqueueEmail(ctx, TriggerOrderShipped, order, map[string]interface{}{
		"orderId":        order.ID,
		"customerName":   order.CustomerName,
		"carrier":        order.Carrier,
		"trackingNumber": order.TrackingNumber,
		"trackingUrl":    trackingURL,
	})

	o.record(models.NotificationRecord{
		Channel:   models.ChannelEmail,
		Type:      models.TypeShipped,
		Recipient: order.CustomerEmail,
		Status:    recordStatus(emailOK),
		Details:   fmt.Sprintf("Shipment email, tracking %s", order.TrackingNumber),
	})
}

func (o *Orchestrator) delivered(ctx context.Context, order models.Order) {
	text := fmt.Sprintf("Hi %s, your order %s was delivered. Get well soon!",
		order.CustomerName, order.ID)
	ok := retry.DoWithDelay(ctx, func() error {
		return o.SendWhatsApp(ctx, order.CustomerPhone, text)
	}, o.attempts(), o.RetryBase)

	o.record(models.NotificationRecord{
		Channel:   models.ChannelWhatsApp,
		Type:      models.TypeDelivered,
		Recipient: order.CustomerPhone,
		Status:    recordStatus(ok),
		Details:   fmt.Sprintf("Delivery confirmation for %s", order.ID),
	})
}

// enqueueEmail resolves the trigger's template and queues the dispatch.
// Any failure is reported as false, never as an error into the order flow.
func (o *Orchestrator) enqueueEmail(ctx context.Context, trigger string, order models.Order, contextData map[string]interface{}) bool {
	tmpl, err := o.Templates.GetTemplateByTrigger(ctx, trigger)
	if err != nil {
		o.Log.Error("no active template for trigger",
			zap.String("trigger", trigger),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return false
	}
	return o.Queue.Enqueue(ctx, order.CustomerEmail, order.CustomerName, tmpl.ID, contextData)
}

func recordStatus(ok bool) models.RecordStatus {
	if ok {
		return models.RecordSent
	}
	return models.RecordFailed
}
