package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound        = errors.New("client user not found")
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyAssigned = errors.New("client already follows another professional")
	ErrClientNotManaged      = errors.New("client is not managed by this professional")
)

// ProfessionalService maintains the professional/client relation.
type ProfessionalService interface {
	AddClientByEmail(ctx context.Context, professionalID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetManagedClients(ctx context.Context, professionalID primitive.ObjectID) ([]domain.User, error)
}

// professionalService implements the ProfessionalService interface.
type professionalService struct {
	userRepo repository.UserRepository
	tx       repository.Transactor
}

// NewProfessionalService creates a new instance of professionalService.
func NewProfessionalService(userRepo repository.UserRepository, tx repository.Transactor) ProfessionalService {
	return &professionalService{
		userRepo: userRepo,
		tx:       tx,
	}
}

// AddClientByEmail finds a client by email and links them to the professional.
// Adding a client the professional already manages is a no-op.
func (s *professionalService) AddClientByEmail(ctx context.Context, professionalID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	clientEmail = strings.TrimSpace(strings.ToLower(clientEmail))
	if professionalID == primitive.NilObjectID || clientEmail == "" {
		return nil, errors.New("professional ID and client email are required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotRole
	}

	if client.HasProfessional() {
		if client.ManagedBy(professionalID) {
			client.PasswordHash = ""
			return client, nil
		}
		return nil, ErrClientAlreadyAssigned
	}

	// Both sides of the relation are written together.
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.AddClientToProfessional(ctx, professionalID, client.ID); err != nil {
			return err
		}
		return s.userRepo.SetProfessionalForClient(ctx, client.ID, professionalID)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: client %s now managed by professional %s", client.ID.Hex(), professionalID.Hex())

	client.ProfessionalID = &professionalID
	client.PasswordHash = ""
	return client, nil
}

// GetManagedClients retrieves the list of clients managed by the professional.
func (s *professionalService) GetManagedClients(ctx context.Context, professionalID primitive.ObjectID) ([]domain.User, error) {
	if professionalID == primitive.NilObjectID {
		return nil, errors.New("professional ID is required")
	}
	clients, err := s.userRepo.GetClientsByProfessionalID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	if clients == nil {
		clients = []domain.User{}
	}
	return clients, nil
}
