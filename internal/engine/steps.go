package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Djimarr/projek-maintenance/internal/attachment"
	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/models"
	"github.com/Djimarr/projek-maintenance/internal/validation"
)

const (
	msgWelcome           = "Maintenance & logbook checklist. Send /cancel at any time to stop."
	msgIdle              = "No checklist in progress. Send /start to begin."
	msgRetry             = "Something went wrong while saving. Please try again."
	msgStartOver         = "This session is no longer available. Send /start to begin again."
	msgCancelled         = "Cancelled. Send /start to begin again."
	msgUnknownCommand    = "Unknown command. Use /start or /cancel."
	msgNotRecognized     = "That option is not recognized."
	msgAskTechnician1    = "Name of technician 1?"
	msgAskTechnician2    = "Name of technician 2? Send - if working alone."
	msgAskName           = "Please type a name."
	msgAskDate           = "Task date?"
	msgAskManualDate     = "Type the task date as YYYY-MM-DD."
	msgInvalidDate       = "Invalid date. Use the format YYYY-MM-DD, for example 2024-03-01."
	msgAskKind           = "What are you filling in?"
	msgAskEquipment      = "Choose the equipment:"
	msgNoEquipment       = "No equipment is configured. Contact the administrator."
	msgAskShift          = "Choose the shift:"
	msgUseButtons        = "Please answer with the OK / NOK buttons."
	msgInvalidNumber     = "Invalid value. Enter a number, for example 12.5 or 12,5."
	msgEmptyAnswer       = "The answer cannot be empty."
	msgAskNOKReason      = "Describe the problem found."
	msgAskNOKPhoto       = "Send a photo of the problem, or skip."
	msgAskSummary        = "All points are answered. Type a summary of the maintenance."
	msgAskLogbookNote    = "Type the logbook note for this shift."
	msgAskSessionPhoto   = "Send a documentation photo, or skip to finish."
	msgPhotoFailed       = "The photo could not be saved. Send it again or skip."
	msgReportFailed      = "The report could not be generated. It is still available on the dashboard."
	msgTicketUnavailable = "Support tickets are not available."
)

func skipRow() []Button {
	return row(button("Skip", ActionSkip, ""))
}

// prompt re-presents what the current step is waiting for.
func (e *Engine) prompt(ctx context.Context, conv *models.Conversation) ([]Reply, error) {
	switch conv.Step {
	case models.StepTechnician1:
		return []Reply{say(msgAskTechnician1)}, nil
	case models.StepTechnician2:
		return []Reply{say(msgAskTechnician2)}, nil
	case models.StepTaskDate:
		return []Reply{e.askDate()}, nil
	case models.StepChooseKind:
		return []Reply{askKind()}, nil
	case models.StepChooseEquipment:
		r, err := e.askEquipment(ctx)
		return []Reply{r}, err
	case models.StepChooseShift:
		return []Reply{askShift()}, nil
	case models.StepAnswering:
		return e.advance(ctx, conv)
	case models.StepNOKReason:
		return []Reply{say(msgAskNOKReason)}, nil
	case models.StepNOKPhoto:
		return []Reply{{Text: msgAskNOKPhoto, Buttons: [][]Button{skipRow()}}}, nil
	case models.StepSummary:
		return []Reply{say(msgAskSummary)}, nil
	case models.StepLogbookNote:
		return []Reply{say(msgAskLogbookNote)}, nil
	case models.StepSessionPhoto:
		return []Reply{{Text: msgAskSessionPhoto, Buttons: [][]Button{skipRow()}}}, nil
	default:
		return e.ticketPrompt(conv)
	}
}

// reprompt answers an event the step does not accept without changing state.
func (e *Engine) reprompt(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	out := []Reply{}
	if _, ok := ev.(Choice); ok {
		out = append(out, say(msgNotRecognized))
	}
	more, err := e.prompt(ctx, conv)
	return append(out, more...), err
}

func (e *Engine) onTechnician1(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	t, ok := ev.(Text)
	if !ok {
		return e.reprompt(ctx, conv, ev)
	}
	name := strings.TrimSpace(t.Body)
	if name == "" {
		return []Reply{say(msgAskName)}, nil
	}
	conv.Technician1 = name
	conv.Step = models.StepTechnician2
	return []Reply{say(msgAskTechnician2)}, nil
}

func (e *Engine) onTechnician2(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	t, ok := ev.(Text)
	if !ok {
		return e.reprompt(ctx, conv, ev)
	}
	name := strings.TrimSpace(t.Body)
	if name == "" {
		return []Reply{say(msgAskName)}, nil
	}
	if name == "-" || strings.EqualFold(name, "none") {
		name = ""
	}
	conv.Technician2 = name
	conv.Step = models.StepTaskDate
	return []Reply{e.askDate()}, nil
}

func (e *Engine) askDate() Reply {
	today := e.now().Format(models.TaskDateLayout)
	return Reply{
		Text: msgAskDate,
		Buttons: [][]Button{
			row(button("Use today ("+today+")", ActionDate, today)),
			row(button("Enter manually", ActionManualDate, "")),
		},
	}
}

func (e *Engine) onTaskDate(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	var raw string
	switch ev := ev.(type) {
	case Text:
		raw = ev.Body
	case Choice:
		switch ev.Action {
		case ActionManualDate:
			return []Reply{say(msgAskManualDate)}, nil
		case ActionDate:
			raw = ev.Value
		default:
			return e.reprompt(ctx, conv, ev)
		}
	default:
		return e.reprompt(ctx, conv, ev)
	}
	date, err := validation.TaskDate(raw)
	if err != nil {
		return []Reply{say(msgInvalidDate)}, nil
	}
	conv.TaskDate = date
	conv.Step = models.StepChooseKind
	return []Reply{askKind()}, nil
}

func askKind() Reply {
	return Reply{
		Text: msgAskKind,
		Buttons: [][]Button{row(
			button("Maintenance", ActionKind, string(models.KindMaintenance)),
			button("Logbook", ActionKind, string(models.KindLogbook)),
		)},
	}
}

func askShift() Reply {
	return Reply{
		Text: msgAskShift,
		Buttons: [][]Button{row(
			button("PS", ActionShift, string(models.ShiftPS)),
			button("MT", ActionShift, string(models.ShiftMT)),
		)},
	}
}

func (e *Engine) askEquipment(ctx context.Context) (Reply, error) {
	list, err := e.catalog.ListEquipment(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("list equipment: %w", err)
	}
	if len(list) == 0 {
		return say(msgNoEquipment), nil
	}
	r := Reply{Text: msgAskEquipment}
	for _, eq := range list {
		r.Buttons = append(r.Buttons, row(button(eq.Name, ActionEquipment, strconv.FormatInt(eq.ID, 10))))
	}
	return r, nil
}

func (e *Engine) onChooseKind(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	c, ok := ev.(Choice)
	if !ok || c.Action != ActionKind {
		return e.reprompt(ctx, conv, ev)
	}
	switch models.SessionKind(c.Value) {
	case models.KindMaintenance:
		r, err := e.askEquipment(ctx)
		if err != nil {
			return nil, err
		}
		conv.Kind = models.KindMaintenance
		conv.Step = models.StepChooseEquipment
		return []Reply{r}, nil
	case models.KindLogbook:
		conv.Kind = models.KindLogbook
		conv.Step = models.StepChooseShift
		return []Reply{askShift()}, nil
	default:
		return e.reprompt(ctx, conv, ev)
	}
}

func (e *Engine) onChooseEquipment(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	c, ok := ev.(Choice)
	if !ok || c.Action != ActionEquipment {
		return e.reprompt(ctx, conv, ev)
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil {
		return e.reprompt(ctx, conv, ev)
	}
	equipment, err := e.catalog.Equipment(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return e.reprompt(ctx, conv, ev)
	}
	if err != nil {
		return nil, err
	}

	sessionID, err := e.store.CreateSession(ctx, models.Session{
		Technician1: conv.Technician1,
		Technician2: conv.Technician2,
		TaskDate:    conv.TaskDate,
		Kind:        models.KindMaintenance,
		EquipmentID: &equipment.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	conv.SessionID = sessionID
	conv.EquipmentID = equipment.ID

	out := []Reply{say(fmt.Sprintf("Maintenance session #%d started for %s.", sessionID, equipment.Name))}
	next, err := e.advance(ctx, conv)
	return append(out, next...), err
}

func (e *Engine) onChooseShift(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	c, ok := ev.(Choice)
	if !ok || c.Action != ActionShift || !models.IsValidShift(models.Shift(c.Value)) {
		return e.reprompt(ctx, conv, ev)
	}
	shift := models.Shift(c.Value)
	sessionID, err := e.store.CreateSession(ctx, models.Session{
		Technician1: conv.Technician1,
		Technician2: conv.Technician2,
		TaskDate:    conv.TaskDate,
		Kind:        models.KindLogbook,
		Shift:       shift,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	conv.SessionID = sessionID
	conv.Shift = shift
	conv.Step = models.StepLogbookNote
	return []Reply{
		say(fmt.Sprintf("Logbook #%d, shift %s, %s.", sessionID, shift, conv.TaskDate)),
		say(msgAskLogbookNote),
	}, nil
}

// advance asks the next unanswered point, or moves to the summary when none is left.
func (e *Engine) advance(ctx context.Context, conv *models.Conversation) ([]Reply, error) {
	conv.PendingNOK = 0
	point, err := e.store.NextUnansweredPoint(ctx, conv.SessionID)
	if err != nil {
		return nil, err
	}
	if point == nil {
		conv.Step = models.StepSummary
		conv.PointID = 0
		conv.AnswerType = ""
		return []Reply{say(msgAskSummary)}, nil
	}
	conv.Step = models.StepAnswering
	conv.PointID = point.ID
	conv.AnswerType = point.AnswerType
	return []Reply{askPoint(point)}, nil
}

func askPoint(p *models.ChecklistPoint) Reply {
	q := fmt.Sprintf("%s\n%d. %s", p.Section, p.OrderNumber, p.Question)
	switch {
	case p.AnswerType.IsPassFail():
		id := strconv.FormatInt(p.ID, 10)
		return Reply{Text: q, Buttons: [][]Button{row(
			button("OK", ActionPass, id),
			button("NOK", ActionFail, id),
		)}}
	case p.AnswerType.IsNumeric():
		return say(fmt.Sprintf("%s\nEnter the value in %s.", q, p.AnswerType))
	default:
		return say(q)
	}
}

func (e *Engine) onAnswering(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	switch ev := ev.(type) {
	case Choice:
		if ev.Action != ActionPass && ev.Action != ActionFail {
			return e.reprompt(ctx, conv, ev)
		}
		pointID, err := strconv.ParseInt(ev.Value, 10, 64)
		if err != nil || pointID != conv.PointID || !conv.AnswerType.IsPassFail() {
			// Stale button from an earlier question.
			return e.advance(ctx, conv)
		}
		if ev.Action == ActionFail {
			conv.PendingNOK = pointID
			conv.Step = models.StepNOKReason
			return []Reply{say(msgAskNOKReason)}, nil
		}
		if err := e.record(ctx, models.Record{SessionID: conv.SessionID, PointID: pointID, Status: models.ResponseOK}, conv.AnswerType); err != nil {
			return nil, err
		}
		return e.advance(ctx, conv)

	case Text:
		if strings.TrimSpace(ev.Body) == "" {
			return []Reply{say(msgEmptyAnswer)}, nil
		}
		value, err := validation.Answer(ev.Body, conv.AnswerType)
		switch {
		case errors.Is(err, validation.ErrChoiceOnly):
			out := []Reply{say(msgUseButtons)}
			more, err := e.advance(ctx, conv)
			return append(out, more...), err
		case errors.Is(err, validation.ErrEmptyAnswer):
			return []Reply{say(msgEmptyAnswer)}, nil
		case err != nil:
			return []Reply{say(msgInvalidNumber)}, nil
		}
		rec := models.Record{SessionID: conv.SessionID, PointID: conv.PointID, Status: models.ResponseOK, Value: &value}
		if err := e.record(ctx, rec, conv.AnswerType); err != nil {
			return nil, err
		}
		return e.advance(ctx, conv)

	default:
		return e.advance(ctx, conv)
	}
}

// record persists an answer. A point already recorded for the session counts
// as success so a retried turn advances instead of failing.
func (e *Engine) record(ctx context.Context, rec models.Record, t models.AnswerType) error {
	if err := rec.Check(t); err != nil {
		return err
	}
	err := e.store.RecordAnswer(ctx, rec)
	if errors.Is(err, db.ErrDuplicateRecord) {
		e.log.WithField("session_id", rec.SessionID).WithField("point_id", rec.PointID).
			Info("point already recorded, advancing")
		return nil
	}
	return err
}

func (e *Engine) onNOKReason(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	t, ok := ev.(Text)
	if !ok {
		return e.reprompt(ctx, conv, ev)
	}
	reason := strings.TrimSpace(t.Body)
	if reason == "" {
		return []Reply{say(msgAskNOKReason)}, nil
	}
	rec := models.Record{SessionID: conv.SessionID, PointID: conv.PendingNOK, Status: models.ResponseNOK, Explanation: &reason}
	if err := e.record(ctx, rec, conv.AnswerType); err != nil {
		return nil, err
	}
	conv.Step = models.StepNOKPhoto
	return []Reply{{Text: msgAskNOKPhoto, Buttons: [][]Button{skipRow()}}}, nil
}

func (e *Engine) onNOKPhoto(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	switch ev := ev.(type) {
	case Photo:
		path, err := e.savePhoto(ctx, attachment.PointPhotoName(conv.SessionID, conv.PendingNOK, e.now()), ev.Data)
		if err != nil {
			return []Reply{say(msgPhotoFailed)}, nil
		}
		if err := e.store.AttachRecordPhoto(ctx, conv.SessionID, conv.PendingNOK, path); err != nil {
			return nil, err
		}
		out := []Reply{say("Photo saved.")}
		more, err := e.advance(ctx, conv)
		return append(out, more...), err
	case Choice:
		if ev.Action == ActionSkip {
			return e.advance(ctx, conv)
		}
	}
	return e.reprompt(ctx, conv, ev)
}

func (e *Engine) onSummary(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	t, ok := ev.(Text)
	if !ok {
		return e.reprompt(ctx, conv, ev)
	}
	summary := strings.TrimSpace(t.Body)
	if summary == "" {
		return []Reply{say(msgEmptyAnswer)}, nil
	}
	if err := e.store.SetSummary(ctx, conv.SessionID, summary); err != nil {
		return nil, err
	}
	conv.Step = models.StepSessionPhoto
	return []Reply{{Text: msgAskSessionPhoto, Buttons: [][]Button{skipRow()}}}, nil
}

func (e *Engine) onSessionPhoto(ctx context.Context, conv *models.Conversation, ev Event) ([]Reply, error) {
	switch ev := ev.(type) {
	case Photo:
		path, err := e.savePhoto(ctx, attachment.SessionPhotoName(conv.SessionID, e.now()), ev.Data)
		if err != nil {
			return []Reply{say(msgPhotoFailed)}, nil
		}
		conv.Photos = append(conv.Photos, path)
		return e.finalize(ctx, conv)
	case Choice:
		if ev.Action == ActionSkip {
			return e.finalize(ctx, conv)
		}
	}
	return e.reprompt(ctx, conv, ev)
}

// finalize completes the session, exports its report and ends the conversation.
func (e *Engine) finalize(ctx context.Context, conv *models.Conversation) ([]Reply, error) {
	err := e.store.CompleteSession(ctx, conv.SessionID, conv.Photos)
	if err != nil && !errors.Is(err, db.ErrSessionCompleted) {
		return nil, err
	}

	out := []Reply{say(fmt.Sprintf("Session #%d completed. Thank you!", conv.SessionID))}
	if e.exporter != nil {
		path, err := e.exporter.Export(ctx, conv.SessionID)
		if err != nil {
			e.log.WithField("session_id", conv.SessionID).WithError(err).Error("export report")
			out = append(out, say(msgReportFailed))
		} else {
			out = append(out, Reply{Text: fmt.Sprintf("Report for session #%d", conv.SessionID), Document: path})
		}
	}
	conv.Step = ""
	return out, nil
}

func (e *Engine) savePhoto(ctx context.Context, name string, data []byte) (string, error) {
	if e.photos == nil {
		return "", fmt.Errorf("no photo store configured")
	}
	path, err := e.photos.Save(ctx, name, data)
	if err != nil {
		e.log.WithField("photo", name).WithError(err).Error("save photo")
		return "", err
	}
	return path, nil
}
