package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/attachment"
	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/models"
	log "github.com/sirupsen/logrus"
)

// Store is the persistence the engine writes through.
type Store interface {
	db.SessionStore
	db.ConversationStore
	CreateTicket(ctx context.Context, ticket models.SupportTicket) (int64, error)
}

// Catalog lists the equipment a technician can pick.
type Catalog interface {
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
	Equipment(ctx context.Context, id int64) (*models.Equipment, error)
}

// Exporter renders the report of a completed session.
type Exporter interface {
	Export(ctx context.Context, sessionID int64) (string, error)
}

type stepHandler func(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error)

// Engine runs the checklist conversation for every chat.
type Engine struct {
	store      Store
	catalog    Catalog
	photos     attachment.Store
	exporter   Exporter
	log        *log.Entry
	now        func() time.Time
	ticketFlow bool

	handlers map[models.Step]stepHandler
	locks    chatLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithTicketFlow enables the /ticket support-ticket flow.
func WithTicketFlow(enabled bool) Option {
	return func(e *Engine) { e.ticketFlow = enabled }
}

// WithClock overrides the time source used for default dates and photo names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger entry.
func WithLogger(entry *log.Entry) Option {
	return func(e *Engine) { e.log = entry }
}

// New creates an Engine.
func New(store Store, catalog Catalog, photos attachment.Store, exporter Exporter, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		catalog:  catalog,
		photos:   photos,
		exporter: exporter,
		log:      log.WithField("component", "engine"),
		now:      time.Now,
		locks:    chatLocks{m: map[int64]*chatLock{}},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = map[models.Step]stepHandler{
		models.StepTechnician1:     e.onTechnician1,
		models.StepTechnician2:     e.onTechnician2,
		models.StepTaskDate:        e.onTaskDate,
		models.StepChooseKind:      e.onChooseKind,
		models.StepChooseEquipment: e.onChooseEquipment,
		models.StepChooseShift:     e.onChooseShift,
		models.StepAnswering:       e.onAnswering,
		models.StepNOKReason:       e.onNOKReason,
		models.StepNOKPhoto:        e.onNOKPhoto,
		models.StepSummary:         e.onSummary,
		models.StepLogbookNote:     e.onSummary,
		models.StepSessionPhoto:    e.onSessionPhoto,
	}
	if e.ticketFlow {
		e.handlers[models.StepTicketReporter] = e.onTicketReporter
		e.handlers[models.StepTicketCategory] = e.onTicketCategory
		e.handlers[models.StepTicketDescription] = e.onTicketDescription
		e.handlers[models.StepTicketPhoto] = e.onTicketPhoto
	}
	return e
}

// Handle processes one event of a chat to completion and returns the replies.
// Events of the same chat are serialized; different chats run concurrently.
// State is checkpointed only after every write of the turn succeeded.
func (e *Engine) Handle(ctx context.Context, chatID int64, ev Event) []Reply {
	unlock := e.locks.lock(chatID)
	defer unlock()

	logger := e.log.WithField("chat_id", chatID)

	if cmd, ok := ev.(Command); ok {
		return e.onCommand(ctx, chatID, cmd)
	}

	conv, err := e.store.LoadConversation(ctx, chatID)
	if errors.Is(err, db.ErrConversationNotFound) {
		return []Reply{say(msgIdle)}
	}
	if err != nil {
		logger.WithError(err).Error("load conversation")
		return []Reply{say(msgRetry)}
	}

	handler, ok := e.handlers[conv.Step]
	if !ok {
		logger.WithField("step", conv.Step).Warn("conversation in unknown step, clearing")
		e.clear(ctx, chatID)
		return []Reply{say(msgStartOver)}
	}

	work := conv.Clone()
	replies, err := handler(ctx, work, ev)
	if err != nil {
		return e.fail(ctx, logger.WithField("step", conv.Step), chatID, err)
	}

	if work.Step == "" {
		if err := e.store.DeleteConversation(ctx, chatID); err != nil {
			logger.WithError(err).Error("clear conversation")
			return []Reply{say(msgRetry)}
		}
		return replies
	}
	if err := e.store.SaveConversation(ctx, *work); err != nil {
		logger.WithError(err).Error("save conversation")
		return []Reply{say(msgRetry)}
	}
	return replies
}

func (e *Engine) onCommand(ctx context.Context, chatID int64, cmd Command) []Reply {
	cmd = ParseCommand(cmd.Name)
	logger := e.log.WithFields(log.Fields{"chat_id": chatID, "command": cmd.Name})
	switch cmd.Name {
	case "start":
		conv := models.Conversation{ChatID: chatID, Step: models.StepTechnician1}
		if err := e.store.SaveConversation(ctx, conv); err != nil {
			logger.WithError(err).Error("start conversation")
			return []Reply{say(msgRetry)}
		}
		return []Reply{say(msgWelcome), say(msgAskTechnician1)}
	case "cancel":
		if err := e.store.DeleteConversation(ctx, chatID); err != nil {
			logger.WithError(err).Error("cancel conversation")
			return []Reply{say(msgRetry)}
		}
		return []Reply{say(msgCancelled)}
	case "ticket":
		if !e.ticketFlow {
			return []Reply{say(msgTicketUnavailable)}
		}
		conv := models.Conversation{ChatID: chatID, Step: models.StepTicketReporter}
		if err := e.store.SaveConversation(ctx, conv); err != nil {
			logger.WithError(err).Error("start ticket")
			return []Reply{say(msgRetry)}
		}
		return []Reply{say(msgAskReporter)}
	default:
		return []Reply{say(msgUnknownCommand)}
	}
}

func (e *Engine) fail(ctx context.Context, logger *log.Entry, chatID int64, err error) []Reply {
	if errors.Is(err, db.ErrSessionNotFound) || errors.Is(err, db.ErrSessionCompleted) {
		logger.WithError(err).Warn("session gone, clearing conversation")
		e.clear(ctx, chatID)
		return []Reply{say(msgStartOver)}
	}
	logger.WithError(err).Error("turn failed")
	return []Reply{say(msgRetry)}
}

func (e *Engine) clear(ctx context.Context, chatID int64) {
	if err := e.store.DeleteConversation(ctx, chatID); err != nil {
		e.log.WithField("chat_id", chatID).WithError(err).Error("clear conversation")
	}
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// chatLocks is a keyed mutex; entries live only while someone holds or waits.
type chatLocks struct {
	mu sync.Mutex
	m  map[int64]*chatLock
}

func (l *chatLocks) lock(chatID int64) func() {
	l.mu.Lock()
	cl, ok := l.m[chatID]
	if !ok {
		cl = &chatLock{}
		l.m[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.m, chatID)
		}
		l.mu.Unlock()
	}
}
