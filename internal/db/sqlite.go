package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS equipment (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS checklist_points (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    equipment_id INTEGER NOT NULL REFERENCES equipment (id),
    section TEXT NOT NULL,
    question TEXT NOT NULL,
    input_type TEXT NOT NULL,
    order_number INTEGER NOT NULL,
    UNIQUE (equipment_id, order_number)
);

CREATE TABLE IF NOT EXISTS maintenance_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    technician_1_name TEXT NOT NULL,
    technician_2_name TEXT,
    task_date TEXT NOT NULL,
    session_type TEXT NOT NULL,
    equipment_id INTEGER REFERENCES equipment (id),
    shift TEXT,
    summary TEXT,
    image_path TEXT,
    status TEXT NOT NULL DEFAULT 'IN_PROGRESS',
    start_time INTEGER NOT NULL,
    completed_at INTEGER
);

CREATE TABLE IF NOT EXISTS maintenance_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL REFERENCES maintenance_sessions (id) ON DELETE CASCADE,
    point_id INTEGER NOT NULL REFERENCES checklist_points (id),
    response_status TEXT NOT NULL,
    response_value TEXT,
    explanation TEXT,
    image_path TEXT,
    ticket_status TEXT,
    ticket_note TEXT,
    created_at INTEGER NOT NULL,
    UNIQUE (session_id, point_id)
);

CREATE TABLE IF NOT EXISTS support_tickets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reporter_name TEXT NOT NULL,
    reporter_chat_id INTEGER,
    issue_category TEXT NOT NULL,
    issue_description TEXT NOT NULL,
    image_path TEXT,
    status TEXT NOT NULL DEFAULT 'OPEN',
    technician_note TEXT,
    created_at INTEGER NOT NULL,
    resolved_at INTEGER
);

CREATE TABLE IF NOT EXISTS conversations (
    chat_id INTEGER PRIMARY KEY,
    state TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open error: %w", err)
	}
	// A single connection keeps writes from one turn strictly ordered.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertEquipment inserts the equipment if missing and returns its ID.
func (s *SQLiteStore) UpsertEquipment(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("equipment name is required")
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO equipment (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM equipment WHERE name = ?`, name).Scan(&id)
	return id, err
}

// ListEquipment returns all equipment ordered by ID.
func (s *SQLiteStore) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM equipment ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Equipment{}
	for rows.Next() {
		var e models.Equipment
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EnsurePoint inserts a checklist point unless the equipment already has one
// at the same order number.
func (s *SQLiteStore) EnsurePoint(ctx context.Context, p models.ChecklistPoint) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO checklist_points (equipment_id, section, question, input_type, order_number)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (equipment_id, order_number) DO NOTHING`,
		p.EquipmentID, p.Section, p.Question, string(p.AnswerType), p.OrderNumber)
	return err
}

// ListPoints returns an equipment's checklist in presentation order.
func (s *SQLiteStore) ListPoints(ctx context.Context, equipmentID int64) ([]models.ChecklistPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, equipment_id, section, question, input_type, order_number
FROM checklist_points WHERE equipment_id = ? ORDER BY order_number, id`, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ChecklistPoint{}
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CreateSession inserts a new IN_PROGRESS session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session models.Session) (int64, error) {
	created := session.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO maintenance_sessions
    (technician_1_name, technician_2_name, task_date, session_type, equipment_id, shift, status, start_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Technician1,
		nullString(session.Technician2),
		session.TaskDate,
		string(session.Kind),
		nullInt64Ptr(session.EquipmentID),
		nullString(string(session.Shift)),
		string(models.SessionInProgress),
		created.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const sessionColumns = `s.id, s.technician_1_name, s.technician_2_name, s.task_date, s.session_type,
    s.equipment_id, s.shift, s.summary, s.image_path, s.status, s.start_time, s.completed_at`

// GetSession finds a session by its ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM maintenance_sessions s WHERE s.id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// NextUnansweredPoint returns the lowest-ordered point of the session's
// equipment that has no record yet, or nil when every point is answered.
func (s *SQLiteStore) NextUnansweredPoint(ctx context.Context, sessionID int64) (*models.ChecklistPoint, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT p.id, p.equipment_id, p.section, p.question, p.input_type, p.order_number
FROM checklist_points p
JOIN maintenance_sessions s ON p.equipment_id = s.equipment_id
WHERE s.id = ? AND p.id NOT IN (
    SELECT r.point_id FROM maintenance_records r WHERE r.session_id = ?
)
ORDER BY p.order_number, p.id
LIMIT 1`, sessionID, sessionID)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// RecordAnswer inserts one answer for a point of an IN_PROGRESS session.
func (s *SQLiteStore) RecordAnswer(ctx context.Context, record models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := requireInProgress(ctx, tx, record.SessionID); err != nil {
		return err
	}
	created := record.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	ticket := record.TicketStatus
	if record.Status == models.ResponseNOK && ticket == "" {
		ticket = models.TicketOpen
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO maintenance_records
    (session_id, point_id, response_status, response_value, explanation, image_path, ticket_status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		record.PointID,
		string(record.Status),
		nullStringPtr(record.Value),
		nullStringPtr(record.Explanation),
		nullStringPtr(record.PhotoPath),
		nullString(string(ticket)),
		created.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateRecord
		}
		return err
	}
	return tx.Commit()
}

// SetSummary stores the session's free-text summary.
func (s *SQLiteStore) SetSummary(ctx context.Context, sessionID int64, summary string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE maintenance_sessions SET summary = ? WHERE id = ?`, summary, sessionID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrSessionNotFound)
}

// AttachSessionPhotos appends paths, in order, to the session's photo list.
func (s *SQLiteStore) AttachSessionPhotos(ctx context.Context, sessionID int64, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT image_path FROM maintenance_sessions WHERE id = ?`, sessionID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	photos := append(models.SplitPhotos(existing.String), paths...)
	if _, err := tx.ExecContext(ctx, `UPDATE maintenance_sessions SET image_path = ? WHERE id = ?`,
		models.JoinPhotos(photos), sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// AttachRecordPhoto sets the photo of the session's record for a point.
func (s *SQLiteStore) AttachRecordPhoto(ctx context.Context, sessionID, pointID int64, path string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE maintenance_records SET image_path = ? WHERE session_id = ? AND point_id = ?`,
		path, sessionID, pointID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRecordNotFound)
}

// MarkCompleted moves an IN_PROGRESS session to COMPLETED exactly once.
func (s *SQLiteStore) MarkCompleted(ctx context.Context, sessionID int64) error {
	return s.CompleteSession(ctx, sessionID, nil)
}

// CompleteSession appends paths to the session's photos and marks it
// COMPLETED in one transaction. Nothing is written unless the session is
// still IN_PROGRESS.
func (s *SQLiteStore) CompleteSession(ctx context.Context, sessionID int64, paths []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		status   string
		existing sql.NullString
	)
	err = tx.QueryRowContext(ctx, `SELECT status, image_path FROM maintenance_sessions WHERE id = ?`, sessionID).
		Scan(&status, &existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if models.SessionStatus(status) != models.SessionInProgress {
		return ErrSessionCompleted
	}
	photos := append(models.SplitPhotos(existing.String), paths...)
	if _, err := tx.ExecContext(ctx,
		`UPDATE maintenance_sessions SET status = ?, completed_at = ?, image_path = ? WHERE id = ?`,
		string(models.SessionCompleted), s.now().UnixMilli(), models.JoinPhotos(photos), sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadConversation returns the checkpointed state of a chat.
func (s *SQLiteStore) LoadConversation(ctx context.Context, chatID int64) (*models.Conversation, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM conversations WHERE chat_id = ?`, chatID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	var conv models.Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %d: %w", chatID, err)
	}
	conv.ChatID = chatID
	return &conv, nil
}

// SaveConversation checkpoints the state of a chat.
func (s *SQLiteStore) SaveConversation(ctx context.Context, conv models.Conversation) error {
	conv.UpdatedAt = s.now()
	raw, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO conversations (chat_id, state, updated_at) VALUES (?, ?, ?)
ON CONFLICT (chat_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		conv.ChatID, string(raw), conv.UpdatedAt.UnixMilli())
	return err
}

// DeleteConversation clears the state of a chat. Deleting a missing chat is not an error.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE chat_id = ?`, chatID)
	return err
}

// CreateTicket inserts a new OPEN support ticket.
func (s *SQLiteStore) CreateTicket(ctx context.Context, t models.SupportTicket) (int64, error) {
	created := t.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO support_tickets
    (reporter_name, reporter_chat_id, issue_category, issue_description, image_path, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ReporterName, t.ReporterChatID, t.Category, t.Description,
		nullStringPtr(t.PhotoPath), string(models.TicketOpen), created.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const ticketColumns = `id, reporter_name, reporter_chat_id, issue_category, issue_description,
    image_path, status, technician_note, created_at, resolved_at`

// GetTicket finds a support ticket by its ID.
func (s *SQLiteStore) GetTicket(ctx context.Context, id int64) (*models.SupportTicket, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// ListTickets returns all tickets, newest first.
func (s *SQLiteStore) ListTickets(ctx context.Context) ([]models.SupportTicket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SupportTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTicket applies a forward-only status change and an optional note.
func (s *SQLiteStore) UpdateTicket(ctx context.Context, id int64, update models.TicketUpdate) (*models.SupportTicket, error) {
	current, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyTicketUpdate(current.Status, update); err != nil {
		return nil, err
	}
	note := current.TechnicianNote
	if strings.TrimSpace(update.Note) != "" {
		note = update.Note
	}
	var resolved sql.NullInt64
	if current.ResolvedAt != nil {
		resolved = sql.NullInt64{Int64: current.ResolvedAt.UnixMilli(), Valid: true}
	} else if update.Status == models.TicketResolved {
		resolved = sql.NullInt64{Int64: s.now().UnixMilli(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE support_tickets SET status = ?, technician_note = ?, resolved_at = ? WHERE id = ?`,
		string(update.Status), nullString(note), resolved, id)
	if err != nil {
		return nil, err
	}
	return s.GetTicket(ctx, id)
}

// ListSessions returns sessions matching the filter, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM maintenance_sessions s WHERE 1 = 1`
	args := []any{}
	if filter.Kind != "" {
		query += ` AND s.session_type = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		query += ` AND s.status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY s.task_date DESC, s.id DESC`
	return s.querySessions(ctx, query, args...)
}

func (s *SQLiteStore) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *session)
	}
	return out, rows.Err()
}

const recordViewColumns = `r.id, r.session_id, r.point_id, r.response_status, r.response_value, r.explanation,
    r.image_path, r.ticket_status, r.ticket_note, r.created_at,
    p.section, p.question, p.input_type, p.order_number`

// SessionDetail returns a session with its equipment name and ordered records.
func (s *SQLiteStore) SessionDetail(ctx context.Context, id int64) (*models.SessionDetail, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.SessionDetail{Session: *session, Records: []models.RecordView{}}
	if session.EquipmentID != nil {
		err := s.db.QueryRowContext(ctx, `SELECT name FROM equipment WHERE id = ?`, *session.EquipmentID).
			Scan(&detail.EquipmentName)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT `+recordViewColumns+`
FROM maintenance_records r
JOIN checklist_points p ON r.point_id = p.id
WHERE r.session_id = ?
ORDER BY p.order_number, r.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanRecordView(rows)
		if err != nil {
			return nil, err
		}
		detail.Records = append(detail.Records, *v)
	}
	return detail, rows.Err()
}

// DeleteSession removes a session and its records.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM maintenance_records WHERE session_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM maintenance_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, ErrSessionNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

// ListIssues returns every NOK record with its session and equipment context.
func (s *SQLiteStore) ListIssues(ctx context.Context) ([]models.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+recordViewColumns+`, s.task_date, e.name, s.technician_1_name, s.technician_2_name
FROM maintenance_records r
JOIN checklist_points p ON r.point_id = p.id
JOIN maintenance_sessions s ON r.session_id = s.id
JOIN equipment e ON s.equipment_id = e.id
WHERE r.response_status = ?
ORDER BY s.task_date DESC, s.id DESC, p.order_number`, string(models.ResponseNOK))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Issue{}
	for rows.Next() {
		var (
			issue models.Issue
			tech2 sql.NullString
		)
		v, err := scanRecordView(rows, &issue.TaskDate, &issue.EquipmentName, &issue.Technician1, &tech2)
		if err != nil {
			return nil, err
		}
		issue.RecordView = *v
		issue.Technician2 = tech2.String
		out = append(out, issue)
	}
	return out, rows.Err()
}

// ListLogbook returns logbook sessions grouped per task date, newest first.
func (s *SQLiteStore) ListLogbook(ctx context.Context) ([]models.LogbookDay, error) {
	sessions, err := s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM maintenance_sessions s WHERE s.session_type = ? ORDER BY s.task_date DESC, s.id`,
		string(models.KindLogbook))
	if err != nil {
		return nil, err
	}
	return groupLogbook(sessions), nil
}

// UpdateRecordTicket changes the resolution status of a NOK record in a
// completed session.
func (s *SQLiteStore) UpdateRecordTicket(ctx context.Context, sessionID, pointID int64, update models.TicketUpdate) (*models.Record, error) {
	var (
		status        string
		current       sql.NullString
		sessionStatus string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT r.response_status, r.ticket_status, s.status
FROM maintenance_records r JOIN maintenance_sessions s ON r.session_id = s.id
WHERE r.session_id = ? AND r.point_id = ?`,
		sessionID, pointID).Scan(&status, &current, &sessionStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if models.SessionStatus(sessionStatus) != models.SessionCompleted {
		return nil, ErrSessionInProgress
	}
	if models.ResponseStatus(status) != models.ResponseNOK || update.Status == models.TicketInProgress {
		return nil, models.ErrInvalidTransition
	}
	if err := applyTicketUpdate(models.TicketStatus(current.String), update); err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE maintenance_records SET ticket_status = ?, ticket_note = COALESCE(?, ticket_note) WHERE session_id = ? AND point_id = ?`,
		string(update.Status), nullString(strings.TrimSpace(update.Note)), sessionID, pointID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
SELECT `+recordViewColumns+`
FROM maintenance_records r JOIN checklist_points p ON r.point_id = p.id
WHERE r.session_id = ? AND r.point_id = ?`, sessionID, pointID)
	v, err := scanRecordView(row)
	if err != nil {
		return nil, err
	}
	return &v.Record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoint(row rowScanner) (*models.ChecklistPoint, error) {
	var (
		p   models.ChecklistPoint
		typ string
	)
	if err := row.Scan(&p.ID, &p.EquipmentID, &p.Section, &p.Question, &typ, &p.OrderNumber); err != nil {
		return nil, err
	}
	p.AnswerType = models.ParseAnswerType(typ)
	return &p, nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s         models.Session
		tech2     sql.NullString
		kind      string
		equipment sql.NullInt64
		shift     sql.NullString
		summary   sql.NullString
		photos    sql.NullString
		status    string
		started   int64
		completed sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Technician1, &tech2, &s.TaskDate, &kind, &equipment, &shift,
		&summary, &photos, &status, &started, &completed); err != nil {
		return nil, err
	}
	s.Technician2 = tech2.String
	s.Kind = models.SessionKind(kind)
	if equipment.Valid {
		id := equipment.Int64
		s.EquipmentID = &id
	}
	s.Shift = models.Shift(shift.String)
	s.Summary = summary.String
	s.Photos = models.SplitPhotos(photos.String)
	s.Status = models.SessionStatus(status)
	s.CreatedAt = time.UnixMilli(started)
	if completed.Valid {
		t := time.UnixMilli(completed.Int64)
		s.CompletedAt = &t
	}
	return &s, nil
}

func scanRecordView(row rowScanner, extra ...any) (*models.RecordView, error) {
	var (
		v       models.RecordView
		status  string
		value   sql.NullString
		explain sql.NullString
		photo   sql.NullString
		ticket  sql.NullString
		note    sql.NullString
		created int64
		typ     string
	)
	dest := []any{&v.ID, &v.SessionID, &v.PointID, &status, &value, &explain, &photo, &ticket, &note, &created,
		&v.Section, &v.Question, &typ, &v.OrderNumber}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	v.Status = models.ResponseStatus(status)
	v.Value = stringPtr(value)
	v.Explanation = stringPtr(explain)
	v.PhotoPath = stringPtr(photo)
	v.TicketStatus = models.TicketStatus(ticket.String)
	v.TicketNote = stringPtr(note)
	v.CreatedAt = time.UnixMilli(created)
	v.AnswerType = models.ParseAnswerType(typ)
	return &v, nil
}

func scanTicket(row rowScanner) (*models.SupportTicket, error) {
	var (
		t        models.SupportTicket
		chatID   sql.NullInt64
		photo    sql.NullString
		status   string
		note     sql.NullString
		created  int64
		resolved sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.ReporterName, &chatID, &t.Category, &t.Description,
		&photo, &status, &note, &created, &resolved); err != nil {
		return nil, err
	}
	t.ReporterChatID = chatID.Int64
	t.PhotoPath = stringPtr(photo)
	t.Status = models.TicketStatus(status)
	t.TechnicianNote = note.String
	t.CreatedAt = time.UnixMilli(created)
	if resolved.Valid {
		r := time.UnixMilli(resolved.Int64)
		t.ResolvedAt = &r
	}
	return &t, nil
}

func requireInProgress(ctx context.Context, tx *sql.Tx, sessionID int64) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM maintenance_sessions WHERE id = ?`, sessionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if models.SessionStatus(status) != models.SessionInProgress {
		return ErrSessionCompleted
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
