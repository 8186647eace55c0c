package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type Service struct {
	store Store
	cost  int
}

func NewService(store Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

type CreateClinicianRequest struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
}

func (s *Service) CreateClinician(ctx context.Context, req CreateClinicianRequest) (models.Clinician, error) {
	if strings.TrimSpace(req.Username) == "" {
		return models.Clinician{}, fmt.Errorf("username required")
	}
	if len(req.Password) < minPasswordLength {
		return models.Clinician{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return models.Clinician{}, err
	}

	return s.store.Create(ctx, CreateClinicianInput{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
}

// Bootstrap creates the first clinician when none exist. It is a no-op
// once any account is present.
func (s *Service) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	clinician, err := s.CreateClinician(ctx, CreateClinicianRequest{Username: username, Password: password, DisplayName: username})
	if err != nil {
		return fmt.Errorf("bootstrapping clinician: %w", err)
	}
	logger.Log.WithField("username", clinician.Username).Info("bootstrap clinician created")
	return nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Clinician, error) {
	clinician, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrClinicianNotFound) {
			return models.Clinician{}, ErrInvalidCredentials
		}
		return models.Clinician{}, err
	}
	if password == "" {
		return models.Clinician{}, ErrInvalidCredentials
	}

	hash, err := s.store.GetPasswordHash(ctx, clinician.ID)
	if err != nil {
		return models.Clinician{}, err
	}
	// Accounts created through OIDC have no password.
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.Clinician{}, ErrInvalidCredentials
	}

	return clinician, nil
}

// ResolveExternal maps an OIDC identity onto a clinician account,
// creating a password-less one on first login.
func (s *Service) ResolveExternal(ctx context.Context, username, displayName, email string) (models.Clinician, error) {
	if strings.TrimSpace(username) == "" {
		return models.Clinician{}, fmt.Errorf("external identity has no username")
	}
	clinician, err := s.store.GetByUsername(ctx, username)
	if err == nil {
		return clinician, nil
	}
	if !errors.Is(err, ErrClinicianNotFound) {
		return models.Clinician{}, err
	}
	clinician, err = s.store.Create(ctx, CreateClinicianInput{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
	})
	if errors.Is(err, ErrUsernameTaken) {
		return s.store.GetByUsername(ctx, username)
	}
	return clinician, err
}

func (s *Service) GetClinician(ctx context.Context, id uuid.UUID) (models.Clinician, error) {
	return s.store.GetByID(ctx, id)
}
