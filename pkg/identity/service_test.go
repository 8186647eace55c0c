package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	svc := NewService(NewMemoryStore())
	svc.cost = bcrypt.MinCost
	return svc
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.CreateClinician(ctx, CreateClinicianRequest{Username: " Dr.House ", Password: "vicodin-42", DisplayName: "Gregory House"})
	require.NoError(t, err)
	assert.Equal(t, "dr.house", created.Username)

	got, err := svc.Authenticate(ctx, "DR.HOUSE", "vicodin-42")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "dr.house", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "vicodin-42")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.CreateClinician(ctx, CreateClinicianRequest{Username: "dr.house", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateClinicianRejectsShortPassword(t *testing.T) {
	_, err := newTestService().CreateClinician(context.Background(), CreateClinicianRequest{Username: "a", Password: "short"})
	assert.Error(t, err)
}

func TestBootstrapOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	require.NoError(t, svc.Bootstrap(ctx, "admin", "change-me-now"))
	require.NoError(t, svc.Bootstrap(ctx, "second", "change-me-too"))

	count, err := svc.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.Authenticate(ctx, "admin", "change-me-now")
	assert.NoError(t, err)
}

func TestResolveExternal(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.ResolveExternal(ctx, "nurse@clinic.example", "Nurse Joy", "nurse@clinic.example")
	require.NoError(t, err)
	again, err := svc.ResolveExternal(ctx, "nurse@clinic.example", "Nurse Joy", "nurse@clinic.example")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = svc.Authenticate(ctx, "nurse@clinic.example", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := svc.GetClinician(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nurse Joy", got.DisplayName)
}
