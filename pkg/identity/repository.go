package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"gorm.io/gorm"
)

var (
	ErrClinicianNotFound  = errors.New("clinician not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store persists clinician accounts. Usernames are unique and compared
// case-insensitively.
type Store interface {
	Create(ctx context.Context, input CreateClinicianInput) (models.Clinician, error)
	GetByUsername(ctx context.Context, username string) (models.Clinician, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Clinician, error)
	GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error)
	Count(ctx context.Context) (int64, error)
}

type ClinicianModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex"`
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ClinicianModel) TableName() string {
	return "clinicians"
}

type CreateClinicianInput struct {
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&ClinicianModel{})
}

func (r *Repository) Create(ctx context.Context, input CreateClinicianInput) (models.Clinician, error) {
	now := time.Now().UTC()
	clinician := ClinicianModel{
		ID:           uuid.New(),
		Username:     normalizeUsername(input.Username),
		DisplayName:  input.DisplayName,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: input.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.WithContext(ctx).Create(&clinician).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.Clinician{}, fmt.Errorf("%w: %s", ErrUsernameTaken, clinician.Username)
	}
	if err != nil {
		return models.Clinician{}, err
	}
	return mapClinicianModel(clinician), nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (models.Clinician, error) {
	var clinician ClinicianModel
	err := r.db.WithContext(ctx).Where("username = ?", normalizeUsername(username)).First(&clinician).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Clinician{}, ErrClinicianNotFound
	}
	if err != nil {
		return models.Clinician{}, err
	}
	return mapClinicianModel(clinician), nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (models.Clinician, error) {
	var clinician ClinicianModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&clinician).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Clinician{}, ErrClinicianNotFound
	}
	if err != nil {
		return models.Clinician{}, err
	}
	return mapClinicianModel(clinician), nil
}

func (r *Repository) GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	var clinician ClinicianModel
	err := r.db.WithContext(ctx).Select("password_hash").Where("id = ?", id).First(&clinician).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrClinicianNotFound
	}
	if err != nil {
		return "", err
	}
	return clinician.PasswordHash, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ClinicianModel{}).Count(&count).Error
	return count, err
}

func mapClinicianModel(c ClinicianModel) models.Clinician {
	return models.Clinician{
		ID:          c.ID,
		Username:    c.Username,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		CreatedAt:   c.CreatedAt,
	}
}

// MemoryStore keeps clinicians in process.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]ClinicianModel
	byName map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]ClinicianModel),
		byName: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, input CreateClinicianInput) (models.Clinician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username := normalizeUsername(input.Username)
	if _, exists := s.byName[username]; exists {
		return models.Clinician{}, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	now := time.Now().UTC()
	clinician := ClinicianModel{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  input.DisplayName,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: input.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[clinician.ID] = clinician
	s.byName[username] = clinician.ID
	return mapClinicianModel(clinician), nil
}

func (s *MemoryStore) GetByUsername(ctx context.Context, username string) (models.Clinician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[normalizeUsername(username)]
	if !ok {
		return models.Clinician{}, ErrClinicianNotFound
	}
	return mapClinicianModel(s.byID[id]), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (models.Clinician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return models.Clinician{}, ErrClinicianNotFound
	}
	return mapClinicianModel(c), nil
}

func (s *MemoryStore) GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return "", ErrClinicianNotFound
	}
	return c.PasswordHash, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}
