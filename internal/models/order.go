package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
)

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order carries the fields the notification pipeline needs from an order
// status change. It is a projection, not the storefront's order model.
type Order struct {
	ID             string      `json:"id"`
	CustomerName   string      `json:"customer_name"`
	CustomerEmail  string      `json:"customer_email"`
	CustomerPhone  string      `json:"customer_phone"`
	GrandTotal     float64     `json:"grand_total"`
	Items          []OrderItem `json:"items"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	Carrier        string      `json:"carrier,omitempty"`
}

type Channel string

const (
	ChannelEmail    Channel = "Email"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WhatsApp"
)

type RecordType string

const (
	TypeConfirmation RecordType = "Confirmation"
	TypeShipped      RecordType = "Shipped"
	TypeDelivered    RecordType = "Delivered"
)

type RecordStatus string

const (
	RecordSent   RecordStatus = "Sent"
	RecordFailed RecordStatus = "Failed"
)

// NotificationRecord is the denormalized per-attempt view emitted to the
// admin notification feed, produced synchronously whether the channel is
// real (email) or simulated (SMS/WhatsApp).
type NotificationRecord struct {
	Channel   Channel      `json:"channel"`
	Type      RecordType   `json:"type"`
	Recipient string       `json:"recipient"`
	Status    RecordStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Details   string       `json:"details"`
}
