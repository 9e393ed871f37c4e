package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Email         string               `bson:"email" json:"email"`
	Password      string               `bson:"password" json:"-"` // bcrypt hash
	Role          string               `bson:"role" json:"role"`  // user or admin
	Phone         string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Categories    []string             `bson:"categories,omitempty" json:"categories,omitempty"`
	BorrowedBooks []primitive.ObjectID `bson:"borrowedBooks,omitempty" json:"borrowedBooks,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
}

// NormalizeRole maps a requested role onto a valid one. Only an explicit
// "admin" is honored; everything else becomes a regular user.
func NormalizeRole(role string) string {
	if role == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}
