package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) SessionDetail(ctx context.Context, id int64) (*models.SessionDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionDetail), args.Error(1)
}

func TestExport_MaintenanceWithRecords(t *testing.T) {
	source := new(MockSource)
	equipmentID := int64(1)
	completed := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	detail := &models.SessionDetail{
		Session: models.Session{
			ID: 5, Technician1: "Ari", TaskDate: "2024-03-01", Kind: models.KindMaintenance,
			EquipmentID: &equipmentID, Summary: "all good", Photos: []string{"uploads/5_a.jpg"},
			Status: models.SessionCompleted, CompletedAt: &completed,
		},
		EquipmentName: "RADAR CUACA EEC",
		Records: []models.RecordView{
			{Record: models.Record{PointID: 1, Status: models.ResponseOK}, Section: "1. Genset",
				Question: "Cek kondisi air accu", AnswerType: models.AnswerPassFail, OrderNumber: 1},
			{Record: models.Record{PointID: 2, Status: models.ResponseOK, Value: models.StringPtr("220.0")},
				Section: "1. Genset", Question: "Ukur Tegangan Output Genset RN", AnswerType: models.AnswerVoltageAC, OrderNumber: 2},
			{Record: models.Record{PointID: 3, Status: models.ResponseNOK, Explanation: models.StringPtr("fuse blown, tegangan turun")},
				Section: "1. Genset", Question: strings.Repeat("Very long question ", 10), AnswerType: models.AnswerPassFail, OrderNumber: 3},
		},
	}
	source.On("SessionDetail", mock.Anything, int64(5)).Return(detail, nil)

	x, err := NewExporter(source, filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)
	path, err := x.Export(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "maintenance_5_2024-03-01.pdf", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	source.AssertExpectations(t)
}

func TestExport_EmptyLogbook(t *testing.T) {
	source := new(MockSource)
	detail := &models.SessionDetail{
		Session: models.Session{ID: 9, Technician1: "Budi", TaskDate: "2024-03-02",
			Kind: models.KindLogbook, Shift: models.ShiftMT, Photos: []string{}, Status: models.SessionCompleted},
		Records: []models.RecordView{},
	}
	source.On("SessionDetail", mock.Anything, int64(9)).Return(detail, nil)

	x, err := NewExporter(source, t.TempDir())
	require.NoError(t, err)
	path, err := x.Export(context.Background(), 9)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExport_MissingSession(t *testing.T) {
	source := new(MockSource)
	source.On("SessionDetail", mock.Anything, int64(404)).Return(nil, db.ErrSessionNotFound)

	x, err := NewExporter(source, t.TempDir())
	require.NoError(t, err)
	_, err = x.Export(context.Background(), 404)
	assert.ErrorIs(t, err, db.ErrSessionNotFound)
}

func TestFit(t *testing.T) {
	pdf := render(&models.SessionDetail{Session: models.Session{Kind: models.KindLogbook, Photos: []string{}}})
	pdf.SetFont("Helvetica", "", 9)
	assert.Equal(t, "short", fit(pdf, "short", 50))
	long := fit(pdf, strings.Repeat("x", 200), 20)
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.LessOrEqual(t, pdf.GetStringWidth(long), 20.0)
}
