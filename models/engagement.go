package models

import "time"

// Contact methods recorded on contact events.
const (
	ContactMethodWhatsApp = "whatsapp"
	ContactMethodPhone    = "phone"
	ContactMethodEmail    = "email"
)

// ContactEvent is the stored record of a contact attempt. Failed attempts
// are recorded too, but only successful ones move the contact counter.
type ContactEvent struct {
	ID         string    `bson:"_id" json:"id"`
	PropertyID string    `bson:"propertyId" json:"propertyId"`
	UserID     string    `bson:"userId,omitempty" json:"userId,omitempty"`
	Method     string    `bson:"method" json:"method"`
	Success    bool      `bson:"success" json:"success"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Engagement event types carried over the event queue.
const (
	EventView    = "view"
	EventContact = "contact"
)

// EngagementEvent is the fire-and-forget message produced by the tracking
// endpoints and consumed by the counter worker.
type EngagementEvent struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	PropertyID string        `json:"propertyId"`
	Contact    *ContactEvent `json:"contact,omitempty"`
	At         time.Time     `json:"at"`
}
