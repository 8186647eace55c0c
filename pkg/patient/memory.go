package patient

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.PatientID]; exists {
		return fmt.Errorf("%w: %s", ErrAllocationConflict, rec.PatientID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records[rec.PatientID] = rec.clone()
	s.order = append(s.order, rec.PatientID)
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

func (s *MemoryStore) MaxSequenceByDOB(ctx context.Context, dob string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var highest int64
	for _, rec := range s.records {
		if rec.DOB != dob {
			continue
		}
		if seq, ok := ParseSequence(rec.PatientID); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

func (s *MemoryStore) UpdateDerived(ctx context.Context, id string, fields models.DerivedFields, analyzedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	risk := string(fields.Risk)
	department := fields.Department
	confidence := fields.Confidence
	rec.Risk = &risk
	rec.Department = &department
	rec.Confidence = &confidence
	rec.AnalyzedAt = &analyzedAt
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id].clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
