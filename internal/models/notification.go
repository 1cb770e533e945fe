package models

// Notification is the payload accepted by the notification sink.
type Notification struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}
