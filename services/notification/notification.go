package notification

import (
	"context"
	"fmt"

	"glowdesk/config"
	"glowdesk/utils"

	"firebase.google.com/go/v4/messaging"
)

// AlertService sends push alerts to the dashboard operator's device.
type AlertService interface {
	NotifyOperator(ctx context.Context, title, body string, data map[string]string) error
}

// FCMAlertService is the production implementation over Firebase Cloud
// Messaging. The single-operator dashboard registers one device token via
// config.
type FCMAlertService struct{}

// NotifyOperator sends an FCM push to the configured operator device. A
// missing client or token disables alerts rather than failing the flow.
func (s *FCMAlertService) NotifyOperator(ctx context.Context, title, body string, data map[string]string) error {
	token := config.AppConfig.OperatorDeviceToken
	if token == "" || utils.FCMClient == nil {
		return nil
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send operator alert: %w", err)
	}
	return nil
}
