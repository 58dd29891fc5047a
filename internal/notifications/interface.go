package notifications

import "github.com/postmystyle/ugc-monitor/internal/models"

// NotificationInterface defines the contract for outbound alerting.
type NotificationInterface interface {
	SendAlert(alert *models.Alert) error
}
