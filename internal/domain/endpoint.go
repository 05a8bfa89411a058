package domain

import "time"

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

// Endpoint is a push-delivery token registered by a user's device.
// At most one row exists per (UserID, Token); rows are invalidated, never deleted.
type Endpoint struct {
	EndpointID   string    `json:"id" dynamodbav:"endpoint_id" gorm:"primaryKey;size:26"`
	UserID       string    `json:"user_id" dynamodbav:"user_id" gorm:"size:64;not null;uniqueIndex:idx_endpoints_user_token"`
	Token        string    `json:"token" dynamodbav:"token" gorm:"size:512;not null;uniqueIndex:idx_endpoints_user_token;index:idx_endpoints_token"`
	Platform     string    `json:"platform" dynamodbav:"platform" gorm:"size:16;not null;default:android"`
	Valid        bool      `json:"valid" dynamodbav:"valid" gorm:"not null"`
	RegisteredAt time.Time `json:"registered_at" dynamodbav:"registered_at" gorm:"not null"`
	LastSeenAt   time.Time `json:"last_seen_at" dynamodbav:"last_seen_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterEndpointRequest struct {
	Token    string `json:"token" validate:"required,max=512"`
	Platform string `json:"platform" validate:"omitempty,oneof=android ios web"`
}
