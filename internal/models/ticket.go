package models

import (
	"time"
)

// TicketCategories are the categories offered by the ticket-filing flow.
var TicketCategories = []string{"Hardware", "Software", "Network", "Other"}

// IsValidCategory checks if a ticket category is offered
func IsValidCategory(c string) bool {
	for _, known := range TicketCategories {
		if known == c {
			return true
		}
	}
	return false
}

// SupportTicket is an IT support request filed by a technician.
type SupportTicket struct {
	ID             int64        `json:"id" bson:"_id"`
	ReporterName   string       `json:"reporter_name" bson:"reporter_name"`
	ReporterChatID int64        `json:"reporter_chat_id" bson:"reporter_chat_id"`
	Category       string       `json:"category" bson:"category"`
	Description    string       `json:"description" bson:"description"`
	PhotoPath      *string      `json:"photo_path,omitempty" bson:"photo_path,omitempty"`
	Status         TicketStatus `json:"status" bson:"status"`
	TechnicianNote string       `json:"technician_note,omitempty" bson:"technician_note,omitempty"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

// TicketUpdate is a dashboard status change on a ticket or NOK record.
type TicketUpdate struct {
	Status TicketStatus `json:"status"`
	Note   string       `json:"note"`
}
