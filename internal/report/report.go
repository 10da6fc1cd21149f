package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Djimarr/projek-maintenance/internal/models"
	"github.com/go-pdf/fpdf"
	log "github.com/sirupsen/logrus"
)

// Source provides the session data a report is rendered from.
type Source interface {
	SessionDetail(ctx context.Context, id int64) (*models.SessionDetail, error)
}

// Exporter renders session reports as PDF files in a directory.
type Exporter struct {
	source Source
	dir    string
	log    *log.Entry
}

// NewExporter creates dir if needed.
func NewExporter(source Source, dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Exporter{source: source, dir: dir, log: log.WithField("component", "report")}, nil
}

// Export writes the report of a session and returns the file path.
func (x *Exporter) Export(ctx context.Context, sessionID int64) (string, error) {
	detail, err := x.source.SessionDetail(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(x.dir, FileName(detail.Session))
	pdf := render(detail)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	x.log.WithFields(log.Fields{"session_id": sessionID, "path": path, "records": len(detail.Records)}).Info("report exported")
	return path, nil
}

// FileName is the report file name of a session.
func FileName(s models.Session) string {
	return fmt.Sprintf("%s_%d_%s.pdf", strings.ToLower(string(s.Kind)), s.ID, s.TaskDate)
}

var columns = []struct {
	title string
	width float64
}{
	{"No", 10},
	{"Question", 78},
	{"Result", 16},
	{"Value / Explanation", 56},
	{"Photo", 20},
}

func render(d *models.SessionDetail) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	s := d.Session

	title := "Maintenance Report"
	if s.Kind == models.KindLogbook {
		title = "Logbook Report"
	}
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	technicians := s.Technician1
	if s.Technician2 != "" {
		technicians += ", " + s.Technician2
	}
	fields := [][2]string{
		{"Session", fmt.Sprintf("#%d", s.ID)},
		{"Task date", s.TaskDate},
		{"Technicians", technicians},
	}
	if s.Kind == models.KindLogbook {
		fields = append(fields, [2]string{"Shift", string(s.Shift)})
	} else {
		fields = append(fields, [2]string{"Equipment", d.EquipmentName})
	}
	fields = append(fields, [2]string{"Status", string(s.Status)})
	if s.CompletedAt != nil {
		fields = append(fields, [2]string{"Completed", s.CompletedAt.Format("2006-01-02 15:04")})
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, f := range fields {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(35, 7, tr(f[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(f[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if s.Kind == models.KindMaintenance {
		renderRecords(pdf, tr, d.Records)
		pdf.Ln(4)
	}

	heading(pdf, tr, "Summary")
	summary := s.Summary
	if summary == "" {
		summary = "-"
	}
	pdf.MultiCell(0, 6, tr(summary), "", "L", false)
	pdf.Ln(4)

	heading(pdf, tr, "Photos")
	if len(s.Photos) == 0 {
		pdf.CellFormat(0, 6, "none", "", 1, "L", false, 0, "")
	}
	for _, p := range s.Photos {
		pdf.CellFormat(0, 6, tr(filepath.Base(p)), "", 1, "L", false, 0, "")
	}
	return pdf
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(text), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func renderRecords(pdf *fpdf.Fpdf, tr func(string) string, records []models.RecordView) {
	heading(pdf, tr, "Checklist")
	if len(records) == 0 {
		pdf.CellFormat(0, 6, "none", "", 1, "L", false, 0, "")
		return
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	section := ""
	for _, r := range records {
		if r.Section != section {
			section = r.Section
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(totalWidth(), 6, tr(fit(pdf, section, totalWidth())), "1", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
		}
		detail := ""
		switch {
		case r.Status == models.ResponseNOK && r.Explanation != nil:
			detail = *r.Explanation
		case r.Value != nil:
			detail = *r.Value + " " + string(r.AnswerType)
		}
		photo := "-"
		if r.PhotoPath != nil {
			photo = "yes"
		}
		cells := []string{fmt.Sprintf("%d", r.OrderNumber), r.Question, string(r.Status), detail, photo}
		for i, c := range columns {
			pdf.CellFormat(c.width, 6, tr(fit(pdf, cells[i], c.width-2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func totalWidth() float64 {
	w := 0.0
	for _, c := range columns {
		w += c.width
	}
	return w
}

// fit truncates text to the given cell width in the current font.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
