// internal/notify/notifier.go

// Package notify is the engine's notification gateway. Sends are
// fire-and-forget: a failure is logged and counted, never retried here.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"childminder-review/internal/common/config"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Recipient carries the applicant details used to personalize a
// notification.
type Recipient struct {
	EmailAddress string
	PhoneNumber  string
	FirstName    string
	Reference    string
}

// Notifier is the gateway the release state machine talks to.
type Notifier interface {
	// SendAccepted tells the applicant their application was accepted. The
	// template varies on whether they care for ages zero to five.
	SendAccepted(ctx context.Context, r Recipient, zeroToFive bool) error
	// SendReturned tells the applicant their application needs further
	// information, with the magic link for re-entry.
	SendReturned(ctx context.Context, r Recipient, link string, expiresAt int64) error
}

// EmailSender is the slice of the SES client the notifier needs.
type EmailSender interface {
	SendTemplatedEmail(ctx context.Context, input *ses.SendTemplatedEmailInput) (*ses.SendTemplatedEmailOutput, error)
}

// SMSPublisher is the slice of the SNS client the notifier needs.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Service struct {
	email  EmailSender
	sms    SMSPublisher
	cfg    config.NotificationConfig
	logger logger.Logger
}

func NewService(email EmailSender, sms SMSPublisher, cfg config.NotificationConfig, log logger.Logger) *Service {
	return &Service{
		email:  email,
		sms:    sms,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (s *Service) SendAccepted(ctx context.Context, r Recipient, zeroToFive bool) error {
	template := s.cfg.Templates.AcceptedStandard
	if zeroToFive {
		template = s.cfg.Templates.AcceptedZeroToFive
	}

	return s.sendEmail(ctx, r, template, map[string]string{
		"firstName": r.FirstName,
		"ref":       r.Reference,
	})
}

func (s *Service) SendReturned(ctx context.Context, r Recipient, link string, expiresAt int64) error {
	err := s.sendEmail(ctx, r, s.cfg.Templates.Returned, map[string]string{
		"firstName": r.FirstName,
		"ref":       r.Reference,
		"link":      link,
	})
	if err != nil {
		return err
	}

	// SMS is a best-effort secondary channel for returns.
	if s.cfg.SMSEnabled && s.sms != nil && r.PhoneNumber != "" {
		message := fmt.Sprintf("Your childminder application %s needs further information. Check your email for the sign-in link.", r.Reference)
		_, err := s.sms.Publish(ctx, &sns.PublishInput{
			PhoneNumber: aws.String(r.PhoneNumber),
			Message:     aws.String(message),
		})
		if err != nil {
			metrics.NotificationFailures.WithLabelValues("sms").Inc()
			s.logger.Warn("sms send failed", map[string]interface{}{
				"ref":   r.Reference,
				"error": err.Error(),
			})
		}
	}

	return nil
}

func (s *Service) sendEmail(ctx context.Context, r Recipient, template string, personalization map[string]string) error {
	data, err := json.Marshal(personalization)
	if err != nil {
		return fmt.Errorf("marshal template data: %w", err)
	}

	_, err = s.email.SendTemplatedEmail(ctx, &ses.SendTemplatedEmailInput{
		Source:       aws.String(s.cfg.Sender),
		Template:     aws.String(template),
		TemplateData: aws.String(string(data)),
		Destination: &sestypes.Destination{
			ToAddresses: []string{r.EmailAddress},
		},
	})
	if err != nil {
		metrics.NotificationFailures.WithLabelValues("email").Inc()
		return fmt.Errorf("send email template %s: %w", template, err)
	}

	s.logger.Info("email sent", map[string]interface{}{
		"template": template,
		"ref":      r.Reference,
	})
	return nil
}
