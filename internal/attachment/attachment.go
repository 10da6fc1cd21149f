package attachment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("attachment not found")

// Store persists photo bytes and returns the reference recorded on sessions,
// records and tickets.
type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
}

const stampLayout = "20060102_150405"

func suffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// PointPhotoName names the photo attached to one NOK record.
func PointPhotoName(sessionID, pointID int64, at time.Time) string {
	return fmt.Sprintf("%d_%d_%s_%s.jpg", sessionID, pointID, at.Format(stampLayout), suffix())
}

// SessionPhotoName names a documentation photo of a whole session.
func SessionPhotoName(sessionID int64, at time.Time) string {
	return fmt.Sprintf("%d_%s_%s.jpg", sessionID, at.Format(stampLayout), suffix())
}

// TicketPhotoName names the photo attached to a support ticket.
func TicketPhotoName(chatID int64, at time.Time) string {
	return fmt.Sprintf("ticket_%d_%s_%s.jpg", chatID, at.Format(stampLayout), suffix())
}

// cleanName rejects names that would escape the storage root.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("attachment name is required")
	}
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." {
		return "", fmt.Errorf("invalid attachment name %q", name)
	}
	return base, nil
}

// LocalStore keeps photos in a directory on disk.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

// Save writes data under name and returns the file path.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("attachment %s is empty", name)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

// Get reads a stored photo by its file name.
func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	name, err := cleanName(filepath.Base(name))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}
