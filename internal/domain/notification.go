package domain

import "time"

// Notification is one delivered message for one recipient. Body is a frozen
// snapshot of the rendered template. ReadAt is set once and never moves.
type Notification struct {
	NotificationID string            `json:"id" dynamodbav:"notification_id" gorm:"primaryKey;size:26"`
	UserID         string            `json:"user_id" dynamodbav:"user_id" gorm:"size:64;not null;index:idx_notifications_user_created,priority:1"`
	TemplateName   string            `json:"template" dynamodbav:"template_name" gorm:"size:64;not null"`
	Title          string            `json:"title" dynamodbav:"title"`
	Body           string            `json:"body" dynamodbav:"body" gorm:"not null"`
	Data           map[string]string `json:"data,omitempty" dynamodbav:"data,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time         `json:"created" dynamodbav:"created_at" gorm:"not null;index:idx_notifications_user_created,priority:2"`
	ReadAt         *time.Time        `json:"read_at" dynamodbav:"read_at,omitempty"`
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }
