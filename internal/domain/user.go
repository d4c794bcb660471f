package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role separates the people who write plans from the people who follow them.
type Role string

const (
	RoleProfessional Role = "professional" // nutritionist or trainer
	RoleClient       Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleProfessional || r == RoleClient
}

// User is either a professional or a client. The professional/client relation is
// stored on both sides: ClientIDs on the professional, ProfessionalID on the client.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"` // unique, stored lowercase
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	ClientIDs      []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`           // professional only
	ProfessionalID *primitive.ObjectID  `bson:"professionalId,omitempty" json:"professionalId,omitempty"` // client only
}

func (u *User) IsProfessional() bool {
	return u.Role == RoleProfessional
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// HasProfessional reports whether the client is already followed by someone.
func (u *User) HasProfessional() bool {
	return u.ProfessionalID != nil && *u.ProfessionalID != primitive.NilObjectID
}

// ManagedBy reports whether professionalID follows this client.
func (u *User) ManagedBy(professionalID primitive.ObjectID) bool {
	return u.HasProfessional() && *u.ProfessionalID == professionalID
}
