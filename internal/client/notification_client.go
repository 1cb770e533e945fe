package client

import (
	"context"
	"net/http"

	"github.com/parikshasetu/exam-platform/internal/models"
)

// NotificationClient posts messages to the notification sink.
type NotificationClient struct {
	peer peer
}

// NewNotificationClient constructs a notification client.
func NewNotificationClient(baseURL string, opts Options) *NotificationClient {
	return &NotificationClient{peer: newPeer("notification-service", baseURL, opts)}
}

// Send delivers one notification.
func (c *NotificationClient) Send(ctx context.Context, n models.Notification) error {
	res, err := c.peer.do(ctx, http.MethodPost, "/notifications", n, true)
	if err != nil {
		return err
	}
	if res.status < 200 || res.status >= 300 {
		return &StatusError{Peer: c.peer.name, Status: res.status}
	}
	return nil
}
