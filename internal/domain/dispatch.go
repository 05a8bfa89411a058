package domain

import "time"

// DeliveryOutcome is the result of one push attempt to one endpoint.
type DeliveryOutcome string

const (
	Delivered        DeliveryOutcome = "delivered"
	TransientFailure DeliveryOutcome = "transient_failure"
	PermanentFailure DeliveryOutcome = "permanent_failure"
)

// PushMessage is what a gateway sends to a single endpoint token.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// DispatchReport summarizes one Send call. It is informational only.
type DispatchReport struct {
	DispatchID   string            `json:"id"`
	TemplateName string            `json:"template"`
	Recipients   []RecipientReport `json:"recipients"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
}

type RecipientReport struct {
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id,omitempty"`
	Attempted      int    `json:"attempted"`
	Delivered      int    `json:"delivered"`
	Transient      int    `json:"transient"`
	Invalidated    int    `json:"invalidated"`
	Error          string `json:"error,omitempty"`
}

type DispatchRequest struct {
	Template string            `json:"template" validate:"required"`
	Params   map[string]string `json:"params"`
	Data     map[string]string `json:"data"`
	UserIDs  []string          `json:"user_ids" validate:"required,min=1,dive,required"`
}
