package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password hash in JSON

	// Set on each successful login/logout; nil until the first one
	LastLogin  *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LastLogout *time.Time `bson:"lastLogout,omitempty" json:"lastLogout,omitempty"`
}
