package db

import (
	"context"
	"errors"

	"github.com/Djimarr/projek-maintenance/internal/models"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrRecordNotFound       = errors.New("record not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrDuplicateRecord      = errors.New("point already answered in this session")
	ErrSessionCompleted     = errors.New("session already completed")
	ErrSessionInProgress    = errors.New("session still in progress")
)

// CatalogStore defines the interface for equipment and checklist reference data.
type CatalogStore interface {
	UpsertEquipment(ctx context.Context, name string) (int64, error)
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
	EnsurePoint(ctx context.Context, point models.ChecklistPoint) error
	ListPoints(ctx context.Context, equipmentID int64) ([]models.ChecklistPoint, error)
}

// SessionStore defines the session and record operations the conversation
// engine writes through.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) (int64, error)
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	NextUnansweredPoint(ctx context.Context, sessionID int64) (*models.ChecklistPoint, error)
	RecordAnswer(ctx context.Context, record models.Record) error
	SetSummary(ctx context.Context, sessionID int64, summary string) error
	AttachSessionPhotos(ctx context.Context, sessionID int64, paths []string) error
	AttachRecordPhoto(ctx context.Context, sessionID, pointID int64, path string) error
	MarkCompleted(ctx context.Context, sessionID int64) error
	CompleteSession(ctx context.Context, sessionID int64, paths []string) error
}

// ConversationStore defines the interface for checkpointed engine state.
type ConversationStore interface {
	LoadConversation(ctx context.Context, chatID int64) (*models.Conversation, error)
	SaveConversation(ctx context.Context, conv models.Conversation) error
	DeleteConversation(ctx context.Context, chatID int64) error
}

// TicketStore defines the interface for support ticket operations.
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket models.SupportTicket) (int64, error)
	GetTicket(ctx context.Context, id int64) (*models.SupportTicket, error)
	ListTickets(ctx context.Context) ([]models.SupportTicket, error)
	UpdateTicket(ctx context.Context, id int64, update models.TicketUpdate) (*models.SupportTicket, error)
}

// DashboardStore defines the read views and mutations used by the dashboard.
type DashboardStore interface {
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
	SessionDetail(ctx context.Context, id int64) (*models.SessionDetail, error)
	DeleteSession(ctx context.Context, id int64) error
	ListIssues(ctx context.Context) ([]models.Issue, error)
	ListLogbook(ctx context.Context) ([]models.LogbookDay, error)
	UpdateRecordTicket(ctx context.Context, sessionID, pointID int64, update models.TicketUpdate) (*models.Record, error)
}

// Store is the full persistence surface implemented by every backend.
type Store interface {
	CatalogStore
	SessionStore
	ConversationStore
	TicketStore
	DashboardStore
	Close(ctx context.Context) error
}

// groupLogbook folds logbook sessions, newest date first, into per-day rows.
// Sessions must already be ordered by task date descending.
func groupLogbook(sessions []models.Session) []models.LogbookDay {
	days := []models.LogbookDay{}
	index := map[string]int{}
	for i := range sessions {
		s := sessions[i]
		pos, ok := index[s.TaskDate]
		if !ok {
			days = append(days, models.LogbookDay{Date: s.TaskDate})
			pos = len(days) - 1
			index[s.TaskDate] = pos
		}
		switch s.Shift {
		case models.ShiftPS:
			days[pos].PS = &s
		case models.ShiftMT:
			days[pos].MT = &s
		}
	}
	return days
}

// applyTicketUpdate validates a forward-only status change.
func applyTicketUpdate(current models.TicketStatus, update models.TicketUpdate) error {
	if !models.IsValidTicketStatus(update.Status) {
		return models.ErrInvalidTransition
	}
	if !current.CanTransition(update.Status) {
		return models.ErrInvalidTransition
	}
	return nil
}
