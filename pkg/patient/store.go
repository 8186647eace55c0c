package patient

import (
	"context"
	"errors"
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

var (
	ErrNotFound           = errors.New("patient not found")
	ErrAllocationConflict = errors.New("patient identifier already allocated")
)

// Store is the record store keyed by patient identifier. Implementations
// must give read-your-writes consistency.
type Store interface {
	// Insert fails with ErrAllocationConflict if the identifier exists.
	Insert(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
	// MaxSequenceByDOB returns the highest identifier sequence stored for
	// dob, or 0 when there is none.
	MaxSequenceByDOB(ctx context.Context, dob string) (int64, error)
	// UpdateDerived writes all derived fields in one operation.
	UpdateDerived(ctx context.Context, id string, fields models.DerivedFields, analyzedAt time.Time) error
	List(ctx context.Context) ([]Record, error)
}
