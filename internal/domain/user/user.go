package user

import "time"

const ProviderMicrosoft = "MICROSOFT"

type User struct {
	ID          string    `bson:"_id" json:"id"`
	Email       string    `bson:"email" json:"email"`
	MicrosoftID string    `bson:"microsoft_id" json:"microsoft_id"`
	Provider    string    `bson:"provider" json:"provider"`
	Enabled     bool      `bson:"enabled" json:"enabled"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
