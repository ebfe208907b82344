package auth

import "time"

// OAuthNonce is a single-use challenge for the native id_token exchange.
// Only the SHA-256 hash of the nonce is stored.
type OAuthNonce struct {
	ID        string     `bson:"_id" json:"id"`
	Provider  string     `bson:"provider" json:"provider"`
	NonceHash string     `bson:"nonce_hash" json:"nonce_hash"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `bson:"used_at,omitempty" json:"used_at,omitempty"`
}
