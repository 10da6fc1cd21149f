package db

import (
	"context"
	"testing"

	"github.com/Djimarr/projek-maintenance/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFixture struct {
	store     Store
	equipment int64
	points    []models.ChecklistPoint
}

// seedFixture creates one equipment with a pass/fail, a voltage and a text point.
func seedFixture(t *testing.T, store Store) storeFixture {
	t.Helper()
	ctx := context.Background()
	id, err := store.UpsertEquipment(ctx, "TEST RADAR")
	require.NoError(t, err)

	for i, p := range []models.ChecklistPoint{
		{Section: "Power", Question: "Check battery water", AnswerType: models.AnswerPassFail},
		{Section: "Power", Question: "Measure input voltage", AnswerType: models.AnswerVoltageAC},
		{Section: "Notes", Question: "Remarks", AnswerType: models.AnswerText},
	} {
		p.EquipmentID = id
		p.OrderNumber = i + 1
		require.NoError(t, store.EnsurePoint(ctx, p))
	}
	points, err := store.ListPoints(ctx, id)
	require.NoError(t, err)
	require.Len(t, points, 3)
	return storeFixture{store: store, equipment: id, points: points}
}

func (f storeFixture) newSession(t *testing.T) int64 {
	t.Helper()
	equipmentID := f.equipment
	id, err := f.store.CreateSession(context.Background(), models.Session{
		Technician1: "Budi",
		Technician2: "Sari",
		TaskDate:    "2024-05-01",
		Kind:        models.KindMaintenance,
		EquipmentID: &equipmentID,
	})
	require.NoError(t, err)
	return id
}

func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("catalog upserts are idempotent", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)

		again, err := store.UpsertEquipment(ctx, "TEST RADAR")
		require.NoError(t, err)
		assert.Equal(t, f.equipment, again)

		require.NoError(t, store.EnsurePoint(ctx, models.ChecklistPoint{
			EquipmentID: f.equipment, Section: "Power", Question: "dup", AnswerType: models.AnswerText, OrderNumber: 1,
		}))
		points, err := store.ListPoints(ctx, f.equipment)
		require.NoError(t, err)
		assert.Len(t, points, 3)
		assert.Equal(t, "Check battery water", points[0].Question)
		assert.Equal(t, models.AnswerVoltageAC, points[1].AnswerType)

		equipment, err := store.ListEquipment(ctx)
		require.NoError(t, err)
		assert.Len(t, equipment, 1)
	})

	t.Run("next unanswered point follows order and skips answered", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)

		next, err := store.NextUnansweredPoint(ctx, sid)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, f.points[0].ID, next.ID)

		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[1].ID,
			Status: models.ResponseOK, Value: models.StringPtr("220.0")}))
		next, err = store.NextUnansweredPoint(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, f.points[0].ID, next.ID)

		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[0].ID,
			Status: models.ResponseOK}))
		next, err = store.NextUnansweredPoint(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, f.points[2].ID, next.ID)

		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[2].ID,
			Status: models.ResponseOK, Value: models.StringPtr("all good")}))
		next, err = store.NextUnansweredPoint(ctx, sid)
		require.NoError(t, err)
		assert.Nil(t, next)

		_, err = store.NextUnansweredPoint(ctx, sid+1000)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("a point is recorded at most once per session", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)

		rec := models.Record{SessionID: sid, PointID: f.points[0].ID, Status: models.ResponseOK}
		require.NoError(t, store.RecordAnswer(ctx, rec))
		assert.ErrorIs(t, store.RecordAnswer(ctx, rec), ErrDuplicateRecord)

		detail, err := store.SessionDetail(ctx, sid)
		require.NoError(t, err)
		assert.Len(t, detail.Records, 1)
	})

	t.Run("nok records open a ticket and show up as issues", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)

		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[2].ID,
			Status: models.ResponseOK, Value: models.StringPtr("noted")}))
		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[0].ID,
			Status: models.ResponseNOK, Explanation: models.StringPtr("water low")}))
		require.NoError(t, store.AttachRecordPhoto(ctx, sid, f.points[0].ID, "uploads/a.jpg"))
		assert.ErrorIs(t, store.AttachRecordPhoto(ctx, sid, f.points[1].ID, "uploads/b.jpg"), ErrRecordNotFound)

		detail, err := store.SessionDetail(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, "TEST RADAR", detail.EquipmentName)
		require.Len(t, detail.Records, 2)
		first := detail.Records[0]
		assert.Equal(t, 1, first.OrderNumber)
		assert.Equal(t, models.ResponseNOK, first.Status)
		assert.Equal(t, models.TicketOpen, first.TicketStatus)
		require.NotNil(t, first.PhotoPath)
		assert.Equal(t, "uploads/a.jpg", *first.PhotoPath)
		assert.Nil(t, first.Value)

		issues, err := store.ListIssues(ctx)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "water low", *issues[0].Explanation)
		assert.Equal(t, "TEST RADAR", issues[0].EquipmentName)
		assert.Equal(t, "2024-05-01", issues[0].TaskDate)
		assert.Equal(t, "Sari", issues[0].Technician2)
	})

	t.Run("record tickets resolve forward only", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)
		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[0].ID,
			Status: models.ResponseNOK, Explanation: models.StringPtr("cracked")}))
		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[1].ID,
			Status: models.ResponseOK, Value: models.StringPtr("7.0")}))

		_, err := store.UpdateRecordTicket(ctx, sid, f.points[0].ID,
			models.TicketUpdate{Status: models.TicketResolved, Note: "too early"})
		assert.ErrorIs(t, err, ErrSessionInProgress)
		detail, err := store.SessionDetail(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, models.TicketOpen, detail.Records[0].TicketStatus)
		assert.Nil(t, detail.Records[0].TicketNote)

		require.NoError(t, store.MarkCompleted(ctx, sid))
		rec, err := store.UpdateRecordTicket(ctx, sid, f.points[0].ID,
			models.TicketUpdate{Status: models.TicketResolved, Note: "replaced"})
		require.NoError(t, err)
		assert.Equal(t, models.TicketResolved, rec.TicketStatus)
		require.NotNil(t, rec.TicketNote)
		assert.Equal(t, "replaced", *rec.TicketNote)

		_, err = store.UpdateRecordTicket(ctx, sid, f.points[0].ID, models.TicketUpdate{Status: models.TicketOpen})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, err = store.UpdateRecordTicket(ctx, sid, f.points[1].ID, models.TicketUpdate{Status: models.TicketResolved})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, err = store.UpdateRecordTicket(ctx, sid, f.points[2].ID, models.TicketUpdate{Status: models.TicketResolved})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("session photos append and completion happens once", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)

		require.NoError(t, store.SetSummary(ctx, sid, "all fine"))
		require.NoError(t, store.AttachSessionPhotos(ctx, sid, []string{"a.jpg"}))
		require.NoError(t, store.AttachSessionPhotos(ctx, sid, []string{"b.jpg", "c.jpg"}))
		require.NoError(t, store.MarkCompleted(ctx, sid))

		session, err := store.GetSession(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, session.Status)
		assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, session.Photos)
		assert.Equal(t, "all fine", session.Summary)
		assert.NotNil(t, session.CompletedAt)

		assert.ErrorIs(t, store.MarkCompleted(ctx, sid), ErrSessionCompleted)
		assert.ErrorIs(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[0].ID,
			Status: models.ResponseOK}), ErrSessionCompleted)
		assert.ErrorIs(t, store.MarkCompleted(ctx, sid+1000), ErrSessionNotFound)
		assert.ErrorIs(t, store.SetSummary(ctx, sid+1000, "x"), ErrSessionNotFound)
	})

	t.Run("completing a session attaches its photos atomically", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)

		require.NoError(t, store.AttachSessionPhotos(ctx, sid, []string{"a.jpg"}))
		require.NoError(t, store.CompleteSession(ctx, sid, []string{"b.jpg"}))
		assert.ErrorIs(t, store.CompleteSession(ctx, sid, []string{"b.jpg"}), ErrSessionCompleted)
		assert.ErrorIs(t, store.CompleteSession(ctx, sid+1000, []string{"x.jpg"}), ErrSessionNotFound)

		session, err := store.GetSession(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, session.Status)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, session.Photos)
		assert.NotNil(t, session.CompletedAt)
	})

	t.Run("delete session removes its records", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		sid := f.newSession(t)
		require.NoError(t, store.RecordAnswer(ctx, models.Record{SessionID: sid, PointID: f.points[0].ID,
			Status: models.ResponseNOK, Explanation: models.StringPtr("broken")}))

		require.NoError(t, store.DeleteSession(ctx, sid))
		_, err := store.GetSession(ctx, sid)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		issues, err := store.ListIssues(ctx)
		require.NoError(t, err)
		assert.Empty(t, issues)
		assert.ErrorIs(t, store.DeleteSession(ctx, sid), ErrSessionNotFound)
	})

	t.Run("sessions filter and logbook grouping", func(t *testing.T) {
		store := open(t)
		f := seedFixture(t, store)
		maintenance := f.newSession(t)
		for _, s := range []models.Session{
			{Technician1: "Budi", TaskDate: "2024-05-01", Kind: models.KindLogbook, Shift: models.ShiftPS},
			{Technician1: "Sari", TaskDate: "2024-05-01", Kind: models.KindLogbook, Shift: models.ShiftMT},
			{Technician1: "Andi", TaskDate: "2024-05-03", Kind: models.KindLogbook, Shift: models.ShiftMT},
		} {
			_, err := store.CreateSession(ctx, s)
			require.NoError(t, err)
		}
		require.NoError(t, store.MarkCompleted(ctx, maintenance))

		logbook, err := store.ListSessions(ctx, models.SessionFilter{Kind: models.KindLogbook})
		require.NoError(t, err)
		assert.Len(t, logbook, 3)
		completed, err := store.ListSessions(ctx, models.SessionFilter{Status: models.SessionCompleted})
		require.NoError(t, err)
		require.Len(t, completed, 1)
		assert.Equal(t, maintenance, completed[0].ID)

		days, err := store.ListLogbook(ctx)
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, "2024-05-03", days[0].Date)
		assert.Nil(t, days[0].PS)
		require.NotNil(t, days[0].MT)
		assert.Equal(t, "Andi", days[0].MT.Technician1)
		assert.Equal(t, "2024-05-01", days[1].Date)
		require.NotNil(t, days[1].PS)
		require.NotNil(t, days[1].MT)
		assert.Equal(t, "Budi", days[1].PS.Technician1)
		assert.Equal(t, "Sari", days[1].MT.Technician1)
	})

	t.Run("conversation checkpoints round trip", func(t *testing.T) {
		store := open(t)
		_, err := store.LoadConversation(ctx, 42)
		assert.ErrorIs(t, err, ErrConversationNotFound)

		conv := models.Conversation{
			ChatID:      42,
			Step:        models.StepAnswering,
			Technician1: "Budi",
			TaskDate:    "2024-05-01",
			Kind:        models.KindMaintenance,
			SessionID:   7,
			PointID:     3,
			AnswerType:  models.AnswerVoltageAC,
			Photos:      []string{"x.jpg"},
		}
		require.NoError(t, store.SaveConversation(ctx, conv))
		conv.Step = models.StepNOKReason
		conv.PendingNOK = 3
		require.NoError(t, store.SaveConversation(ctx, conv))

		loaded, err := store.LoadConversation(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, models.StepNOKReason, loaded.Step)
		assert.Equal(t, int64(3), loaded.PendingNOK)
		assert.Equal(t, int64(7), loaded.SessionID)
		assert.Equal(t, []string{"x.jpg"}, loaded.Photos)
		assert.Equal(t, models.AnswerVoltageAC, loaded.AnswerType)

		require.NoError(t, store.DeleteConversation(ctx, 42))
		_, err = store.LoadConversation(ctx, 42)
		assert.ErrorIs(t, err, ErrConversationNotFound)
		assert.NoError(t, store.DeleteConversation(ctx, 42))
	})

	t.Run("support tickets move forward only", func(t *testing.T) {
		store := open(t)
		id, err := store.CreateTicket(ctx, models.SupportTicket{
			ReporterName: "Budi", ReporterChatID: 42, Category: "Network", Description: "router down",
		})
		require.NoError(t, err)

		ticket, err := store.GetTicket(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.TicketOpen, ticket.Status)
		assert.Nil(t, ticket.ResolvedAt)

		ticket, err = store.UpdateTicket(ctx, id, models.TicketUpdate{Status: models.TicketInProgress})
		require.NoError(t, err)
		assert.Equal(t, models.TicketInProgress, ticket.Status)

		ticket, err = store.UpdateTicket(ctx, id, models.TicketUpdate{Status: models.TicketResolved, Note: "rebooted"})
		require.NoError(t, err)
		assert.Equal(t, models.TicketResolved, ticket.Status)
		assert.Equal(t, "rebooted", ticket.TechnicianNote)
		assert.NotNil(t, ticket.ResolvedAt)

		_, err = store.UpdateTicket(ctx, id, models.TicketUpdate{Status: models.TicketOpen})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, err = store.UpdateTicket(ctx, id, models.TicketUpdate{Status: "BOGUS"})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, err = store.GetTicket(ctx, id+1000)
		assert.ErrorIs(t, err, ErrTicketNotFound)

		tickets, err := store.ListTickets(ctx)
		require.NoError(t, err)
		assert.Len(t, tickets, 1)
	})
}
