// Package notifications delivers run alerts over a webhook and, when
// configured, email.
package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/postmystyle/ugc-monitor/internal/config"
	"github.com/postmystyle/ugc-monitor/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending alerts via configured channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// webhookMessage is the Slack-compatible attachment payload the monitoring
// channel expects.
type webhookMessage struct {
	Text        string              `json:"text"`
	Attachments []webhookAttachment `json:"attachments,omitempty"`
}

type webhookAttachment struct {
	Color  string         `json:"color"`
	Fields []webhookField `json:"fields"`
}

type webhookField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(10 * time.Second),
	}
}

// NewDiscoveryAlert builds the alert sent when a run found new UGC.
func NewDiscoveryAlert(report *models.RunReport) *models.Alert {
	return &models.Alert{
		Title:     "PostMyStyle UGC Monitor Alert - Salon Tracking",
		Severity:  "good",
		Message:   fmt.Sprintf("%d new discoveries, %d sessions correlated", report.NewDiscoveries, report.SessionsCorrelated),
		Report:    report,
		CreatedAt: time.Now(),
	}
}

// NewCriticalAlert builds the alert sent when a run fails outright.
func NewCriticalAlert(runErr error, report *models.RunReport) *models.Alert {
	return &models.Alert{
		Title:     "PostMyStyle UGC Monitor CRITICAL FAILURE",
		Severity:  "danger",
		Message:   runErr.Error(),
		Report:    report,
		CreatedAt: time.Now(),
	}
}

// SendAlert sends an alert via all configured channels
func (s *Service) SendAlert(alert *models.Alert) error {
	var errors []string

	if s.config.AlertWebhookURL != "" {
		if err := s.sendToWebhook(alert); err != nil {
			logrus.Errorf("Failed to send webhook alert: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Info("Successfully sent webhook alert")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email alert: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Info("Successfully sent email alert")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToWebhook(alert *models.Alert) error {
	message := buildWebhookMessage(alert)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.AlertWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to post webhook message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildWebhookMessage(alert *models.Alert) *webhookMessage {
	message := &webhookMessage{Text: alert.Title}

	attachment := webhookAttachment{Color: alert.Severity}

	if alert.Report != nil {
		report := alert.Report
		attachment.Fields = []webhookField{
			{Title: "New Discoveries", Value: fmt.Sprintf("%d", report.NewDiscoveries), Short: true},
			{Title: "Sessions Correlated", Value: fmt.Sprintf("%d", report.SessionsCorrelated), Short: true},
			{Title: "Tracking Codes Found", Value: fmt.Sprintf("%d", report.TrackingCodesFound), Short: true},
			{Title: "Execution Time", Value: fmt.Sprintf("%dms", report.ExecutionTimeMs), Short: true},
		}
		if !report.Success {
			attachment.Fields = append(attachment.Fields,
				webhookField{Title: "Error", Value: alert.Message, Short: false},
				webhookField{Title: "Partial Results", Value: fmt.Sprintf("%d posts processed", report.PostsProcessed), Short: true},
			)
		}
	} else {
		attachment.Fields = []webhookField{
			{Title: "Message", Value: alert.Message, Short: false},
		}
	}

	message.Attachments = []webhookAttachment{attachment}
	return message
}

func (s *Service) sendEmail(alert *models.Alert) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", alert.Title)
	m.SetBody("text/html", buildEmailBody(alert))

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func buildEmailBody(alert *models.Alert) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("<h2>%s</h2>", alert.Title))
	b.WriteString(fmt.Sprintf("<p>%s</p>", alert.Message))

	if alert.Report != nil {
		report := alert.Report
		b.WriteString("<ul>")
		b.WriteString(fmt.Sprintf("<li>Pending sessions: %d</li>", report.PendingSessionsFound))
		b.WriteString(fmt.Sprintf("<li>Hashtags searched: %d</li>", report.HashtagsSearched))
		b.WriteString(fmt.Sprintf("<li>Posts found: %d</li>", report.PostsFound))
		b.WriteString(fmt.Sprintf("<li>New discoveries: %d</li>", report.NewDiscoveries))
		b.WriteString(fmt.Sprintf("<li>Sessions correlated: %d</li>", report.SessionsCorrelated))
		b.WriteString(fmt.Sprintf("<li>Execution time: %dms</li>", report.ExecutionTimeMs))
		b.WriteString("</ul>")
	}

	b.WriteString(fmt.Sprintf("<p><small>Generated at %s</small></p>", alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")))

	return b.String()
}
