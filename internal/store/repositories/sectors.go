package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/infinite-experiment/vatwatch/internal/domain"
)

// SectorDefinitionRepository persists the static sector table via gorm, the
// teacher's declarative-access style for reference data that changes rarely
// and is read far more than it is written.
type SectorDefinitionRepository struct {
	db *gorm.DB
}

// NewSectorDefinitionRepository builds a SectorDefinitionRepository over db.
func NewSectorDefinitionRepository(db *gorm.DB) *SectorDefinitionRepository {
	return &SectorDefinitionRepository{db: db}
}

// ReplaceAll overwrites the sectors table with the loader's current
// definitions, run once at startup so the database mirrors the file the
// operator maintains; a hot reload does not rewrite the table.
func (r *SectorDefinitionRepository) ReplaceAll(ctx context.Context, sectors []domain.Sector) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sectors").Error; err != nil {
			return fmt.Errorf("failed to clear sectors table: %w", err)
		}

		for _, s := range sectors {
			boundary, err := json.Marshal(s.Vertices)
			if err != nil {
				return fmt.Errorf("failed to marshal sector boundary for %s: %w", s.Name, err)
			}
			row := domain.Sector{Name: s.Name, Boundary: string(boundary), FloorFt: s.FloorFt, CeilFt: s.CeilFt}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert sector %s: %w", s.Name, err)
			}
		}
		return nil
	})
}

// ListAll returns every persisted sector definition with its boundary
// decoded back into vertices.
func (r *SectorDefinitionRepository) ListAll(ctx context.Context) ([]domain.Sector, error) {
	var rows []domain.Sector
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	for i := range rows {
		var verts []domain.LatLon
		if err := json.Unmarshal([]byte(rows[i].Boundary), &verts); err == nil {
			rows[i].Vertices = verts
		}
	}
	return rows, nil
}
