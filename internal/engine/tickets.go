package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Djimarr/projek-maintenance/internal/attachment"
	"github.com/Djimarr/projek-maintenance/internal/models"
)

const (
	msgAskReporter    = "Filing a support ticket. What is your name?"
	msgAskCategory    = "Choose the issue category:"
	msgAskDescription = "Describe the issue."
	msgAskTicketPhoto = "Send a photo of the issue, or skip."
)

func askCategory() Reply {
	r := Reply{Text: msgAskCategory}
	for _, c := range models.TicketCategories {
		r.Buttons = append(r.Buttons, row(button(c, ActionCategory, c)))
	}
	return r
}

func (e *Engine) ticketPrompt(conv *models.Conversation) ([]Reply, error) {
	switch conv.Step {
	case models.StepTicketReporter:
		return []Reply{say(msgAskReporter)}, nil
	case models.StepTicketCategory:
		return []Reply{askCategory()}, nil
	case models.StepTicketDescription:
		return []Reply{say(msgAskDescription)}, nil
	case models.StepTicketPhoto:
		return []Reply{{Text: msgAskTicketPhoto, Buttons: [][]Button{skipRow()}}}, nil
	default:
		return nil, fmt.Errorf("no prompt for step %q", conv.Step)
	}
}

func (e *Engine) onTicketReporter(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	t, ok := ev.(Text)
	if !ok {
		return e.reprompt(ctx, conv, ev)
	}
	name := strings.TrimSpace(t.Body)
	if name == "" {
		return []Reply{say(msgAskName)}, nil
	}
	conv.TicketReporter = name
	conv.Step = models.StepTicketCategory
	return []Reply{askCategory()}, nil
}

func (e *Engine) onTicketCategory(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	c, ok := ev.(Choice)
	if !ok || c.Action != ActionCategory || !models.IsValidCategory(c.Value) {
		return e.reprompt(ctx, conv, ev)
	}
	conv.TicketCategory = c.Value
	conv.Step = models.StepTicketDescription
	return []Reply{say(msgAskDescription)}, nil
}

func (e *Engine) onTicketDescription(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	t, ok := ev.(Text)
	if !ok {
		return e.reprompt(ctx, conv, ev)
	}
	desc := strings.TrimSpace(t.Body)
	if desc == "" {
		return []Reply{say(msgEmptyAnswer)}, nil
	}
	conv.TicketDescription = desc
	conv.Step = models.StepTicketPhoto
	return []Reply{{Text: msgAskTicketPhoto, Buttons: [][]Button{skipRow()}}}, nil
}

func (e *Engine) onTicketPhoto(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	var photo *string
	switch ev := ev.(type) {
	case Photo:
		path, err := e.savePhoto(ctx, attachment.TicketPhotoName(conv.ChatID, e.now()), ev.Data)
		if err != nil {
			return []Reply{say(msgPhotoFailed)}, nil
		}
		photo = &path
	case Choice:
		if ev.Action != ActionSkip {
			return e.reprompt(ctx, conv, ev)
		}
	default:
		return e.reprompt(ctx, conv, ev)
	}

	id, err := e.store.CreateTicket(ctx, models.SupportTicket{
		ReporterName:   conv.TicketReporter,
		ReporterChatID: conv.ChatID,
		Category:       conv.TicketCategory,
		Description:    conv.TicketDescription,
		PhotoPath:      photo,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	conv.Step = ""
	return []Reply{say(fmt.Sprintf("Ticket #%d filed. You will be notified when its status changes.", id))}, nil
}
