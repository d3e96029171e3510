// README: FCM sender delivering events as data messages to per-user topics.
package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

func (s *FCMSender) Send(ctx context.Context, e Event) error {
	data := map[string]string{
		"kind":    e.Kind,
		"ride_id": string(e.RideID),
	}
	for k, v := range e.Data {
		data[k] = v
	}
	_, err := s.client.Send(ctx, &messaging.Message{
		Topic: fmt.Sprintf("user_%s", e.UserID),
		Data:  data,
	})
	return err
}
