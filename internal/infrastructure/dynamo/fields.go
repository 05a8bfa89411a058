package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID         = "user_id"
	fieldToken          = "token"
	fieldEndpointID     = "endpoint_id"
	fieldValid          = "valid"
	fieldPlatform       = "platform"
	fieldLastSeenAt     = "last_seen_at"
	fieldRegisteredAt   = "registered_at"
	fieldUpdatedAt      = "updated_at"
	fieldName           = "name"
	fieldNotificationID = "notification_id"
	fieldReadAt         = "read_at"

	indexToken            = "token-index"
	indexEndpointID       = "endpoint_id-index"
	indexUserNotification = "user_id-notification_id-index"
)
