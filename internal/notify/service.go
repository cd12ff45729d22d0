package notify

import (
	"context"
	"fmt"

	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

// Service fans operator notifications out to the configured channels: a
// WhatsApp message to the admin phone and/or an email. Every path is
// best-effort; a failed notification is logged and forgotten.
type Service struct {
	sender        Sender
	email         EmailSender
	adminPhone    string
	operatorEmail string
	logger        *logging.Logger
}

func NewService(sender Sender, email EmailSender, adminPhone, operatorEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sender:        sender,
		email:         email,
		adminPhone:    adminPhone,
		operatorEmail: operatorEmail,
		logger:        logger,
	}
}

// NotifyFeatureRequest tells the operator what a parent asked for that the
// service cannot do yet. requester identifies who asked: kid names plus email
// when the account is known, otherwise the raw phone number.
func (s *Service) NotifyFeatureRequest(ctx context.Context, requester, request string) {
	if s == nil {
		return
	}
	text := fmt.Sprintf("💡 Feature request from %s:\n%q", requester, request)

	if s.sender != nil && s.adminPhone != "" {
		if err := s.sender.Send(ctx, s.adminPhone, text); err != nil {
			s.logger.Error("feature request whatsapp notify failed", "error", err)
		}
	}
	if s.email != nil && s.operatorEmail != "" {
		subject := "Feature request: " + request
		if err := s.email.SendEmail(ctx, s.operatorEmail, subject, text); err != nil {
			s.logger.Error("feature request email notify failed", "error", err)
		}
	}
}

// DescribeRequester formats "who asked" for operator notifications.
func DescribeRequester(kids []directory.Subscriber, phone string) string {
	if len(kids) == 0 {
		return "phone " + phone
	}
	names := ""
	for i, k := range kids {
		if i > 0 {
			names += ", "
		}
		names += k.Name
	}
	email := kids[0].Email
	if email == "" {
		email = "unknown"
	}
	return fmt.Sprintf("%s (%s)", names, email)
}
