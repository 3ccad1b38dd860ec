package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	VendorID   int64     `json:"vendor_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

type Conversation struct {
	ID        uuid.UUID          `json:"id"`
	UserID    int64              `json:"user_id"`
	Subject   string             `json:"subject"`
	Status    ConversationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserLocation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Label     string    `json:"label"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}
