package service

import (
	"context"
	"testing"

	"alcyxob/plan-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddClientByEmail(t *testing.T) {
	users := newFakeUserRepo()
	tx := &fakeTransactor{}
	svc := NewProfessionalService(users, tx)
	ctx := context.Background()

	pro := users.add(domain.User{Name: "Dana", Email: "dana@example.com", Role: domain.RoleProfessional})
	client := users.add(domain.User{Name: "Sam", Email: "sam@example.com", Role: domain.RoleClient, PasswordHash: "hash"})

	got, err := svc.AddClientByEmail(ctx, pro.ID, "  SAM@example.com ")
	require.NoError(t, err)
	require.NotNil(t, got.ProfessionalID)
	assert.Equal(t, pro.ID, *got.ProfessionalID)
	assert.Empty(t, got.PasswordHash)
	assert.Equal(t, 1, tx.calls)

	stored, err := users.GetByID(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, stored.ClientIDs[0])

	// Adding the same client again changes nothing.
	_, err = svc.AddClientByEmail(ctx, pro.ID, "sam@example.com")
	require.NoError(t, err)
	stored, err = users.GetByID(ctx, pro.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ClientIDs, 1)
	assert.Equal(t, 1, tx.calls)

	clients, err := svc.GetManagedClients(ctx, pro.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, client.ID, clients[0].ID)
	assert.Empty(t, clients[0].PasswordHash)
}

func TestAddClientByEmail_Errors(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfessionalService(users, &fakeTransactor{})
	ctx := context.Background()

	pro := users.add(domain.User{Email: "dana@example.com", Role: domain.RoleProfessional})
	other := users.add(domain.User{Email: "rene@example.com", Role: domain.RoleProfessional})
	users.add(domain.User{Email: "taken@example.com", Role: domain.RoleClient, ProfessionalID: &other.ID})

	_, err := svc.AddClientByEmail(ctx, pro.ID, "nobody@example.com")
	require.ErrorIs(t, err, ErrClientNotFound)

	_, err = svc.AddClientByEmail(ctx, pro.ID, "rene@example.com")
	require.ErrorIs(t, err, ErrClientNotRole)

	_, err = svc.AddClientByEmail(ctx, pro.ID, "taken@example.com")
	require.ErrorIs(t, err, ErrClientAlreadyAssigned)

	_, err = svc.AddClientByEmail(ctx, pro.ID, "")
	require.Error(t, err)
}
