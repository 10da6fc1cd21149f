package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Djimarr/projek-maintenance/internal/db"
	"github.com/Djimarr/projek-maintenance/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Catalog is a read-through cache over the equipment catalog. Templates are
// read on every conversation turn and change only when seeding.
type Catalog struct {
	store db.CatalogStore

	mu        sync.Mutex
	equipment []models.Equipment
	points    *lru.Cache[int64, []models.ChecklistPoint]
}

// New creates a Catalog keeping up to size point lists in memory.
func New(store db.CatalogStore, size int) (*Catalog, error) {
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[int64, []models.ChecklistPoint](size)
	if err != nil {
		return nil, fmt.Errorf("create catalog cache: %w", err)
	}
	return &Catalog{store: store, points: cache}, nil
}

// ListEquipment returns all equipment ordered by ID. Callers own the
// returned slice.
func (c *Catalog) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.equipment != nil {
		return slices.Clone(c.equipment), nil
	}
	list, err := c.store.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		c.equipment = slices.Clone(list)
	}
	return list, nil
}

// Equipment finds one equipment by ID.
func (c *Catalog) Equipment(ctx context.Context, id int64) (*models.Equipment, error) {
	list, err := c.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			e := list[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("equipment %d: %w", id, db.ErrNotFound)
}

// ListPoints returns an equipment's checklist in presentation order.
func (c *Catalog) ListPoints(ctx context.Context, equipmentID int64) ([]models.ChecklistPoint, error) {
	if cached, ok := c.points.Get(equipmentID); ok {
		return slices.Clone(cached), nil
	}
	points, err := c.store.ListPoints(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	c.points.Add(equipmentID, slices.Clone(points))
	return points, nil
}

// Seed loads templates through the underlying store and drops cached entries.
func (c *Catalog) Seed(ctx context.Context, templates []EquipmentSeed) error {
	defer c.Invalidate()
	return Seed(ctx, c.store, templates)
}

// Invalidate drops every cached entry.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.equipment = nil
	c.mu.Unlock()
	c.points.Purge()
}
