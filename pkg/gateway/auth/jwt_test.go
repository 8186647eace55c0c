package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
)

func TestIssueAndValidate(t *testing.T) {
	m, err := NewJWTManager("0123456789abcdef-secret", "medtriage", "clinicians", time.Hour)
	require.NoError(t, err)

	clinician := models.Clinician{ID: uuid.New(), Username: "dr.grey", DisplayName: "Meredith Grey"}
	token, err := m.IssueToken(clinician)
	require.NoError(t, err)

	claims, err := m.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, clinician.ID, claims.ClinicianID)
	assert.Equal(t, "dr.grey", claims.Username)
	assert.Equal(t, clinician.ID.String(), claims.Subject)
}

func TestValidateRejects(t *testing.T) {
	m, err := NewJWTManager("0123456789abcdef-secret", "medtriage", "clinicians", time.Hour)
	require.NoError(t, err)
	token, err := m.IssueToken(models.Clinician{ID: uuid.New(), Username: "dr.grey"})
	require.NoError(t, err)

	other, err := NewJWTManager("0123456789abcdef-secret", "medtriage", "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = other.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, err := NewJWTManager("another-secret-of-16+", "medtriage", "clinicians", time.Hour)
	require.NoError(t, err)
	_, err = forged.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.nowFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTManagerShortSecret(t *testing.T) {
	_, err := NewJWTManager("short", "i", "a", time.Hour)
	assert.Error(t, err)
}
