package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"gorm.io/gorm"
)

// Repository is the Postgres-backed Store. The gorm.DB must be opened
// with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Record{})
}

func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrAllocationConflict, rec.PatientID)
	}
	return err
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	result := r.db.WithContext(ctx).First(&rec, "patient_id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &rec, nil
}

func (r *Repository) MaxSequenceByDOB(ctx context.Context, dob string) (int64, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&Record{}).Where("dob = ?", dob).Pluck("patient_id", &ids).Error; err != nil {
		return 0, err
	}
	var highest int64
	for _, id := range ids {
		if seq, ok := ParseSequence(id); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

func (r *Repository) UpdateDerived(ctx context.Context, id string, fields models.DerivedFields, analyzedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&Record{}).
		Where("patient_id = ?", id).
		Updates(map[string]interface{}{
			"risk":        string(fields.Risk),
			"department":  fields.Department,
			"confidence":  fields.Confidence,
			"analyzed_at": analyzedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]Record, error) {
	var recs []Record
	result := r.db.WithContext(ctx).Order("created_at asc").Find(&recs)
	return recs, result.Error
}
