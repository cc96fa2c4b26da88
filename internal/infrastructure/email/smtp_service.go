package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"printshop-backend/pkg/logger"
)

type EmailService interface {
	SendEmail(ctx context.Context, req EmailRequest) error
	SendPaymentConfirmationEmail(ctx context.Context, data PaymentConfirmationData) error
}

// SMTPConfig describes the outgoing mail relay. Username empty means the
// relay accepts unauthenticated mail (MailHog in development).
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	ShopName string
	ShopURL  string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
	auth     smtp.Auth
	shopName string
	shopURL  string
	sendMail sendMailFunc
}

func NewSMTPEmailService(cfg SMTPConfig) EmailService {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &smtpEmailService{
		smtpAddr: cfg.Host + ":" + cfg.Port,
		smtpFrom: cfg.From,
		auth:     auth,
		shopName: cfg.ShopName,
		shopURL:  strings.TrimRight(cfg.ShopURL, "/"),
		sendMail: smtp.SendMail,
	}
}

func (s *smtpEmailService) SendEmail(ctx context.Context, req EmailRequest) error {
	if len(req.To) == 0 {
		return errors.New("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := append(append([]string{}, req.To...), req.Cc...)

	err := s.sendMail(s.smtpAddr, s.auth, s.smtpFrom, recipients, buildMessage(s.smtpFrom, req))
	if err != nil {
		logger.Info("Failed to send email", map[string]interface{}{
			"error":     err.Error(),
			"to":        req.To,
			"smtp_addr": s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *smtpEmailService) SendPaymentConfirmationEmail(ctx context.Context, data PaymentConfirmationData) error {
	subject := fmt.Sprintf("%s: payment received for order %s", s.shopName, data.OrderID)

	name := data.CustomerName
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(`Hi %s,

We have received your payment. Your order is confirmed and will go to print shortly.

Order details:
- Order: %s
- Payment reference: %s
- Amount: %s %s
`, name, data.OrderID, data.OrderReference, data.Total, currencyLabel(data.Currency))

	if data.AuthorizationCode != "" {
		body += fmt.Sprintf("- Authorisation code: %s\n", data.AuthorizationCode)
	}
	if s.shopURL != "" {
		body += fmt.Sprintf("\nTrack your order at: %s/orders/%s\n", s.shopURL, data.OrderID)
	}
	body += fmt.Sprintf("\nThank you,\n%s\n", s.shopName)

	return s.SendEmail(ctx, EmailRequest{
		To:      []string{data.Email},
		Subject: subject,
		Body:    body,
	})
}

// buildMessage renders the RFC 5322 message handed to the relay.
func buildMessage(from string, req EmailRequest) []byte {
	contentType := "text/plain; charset=UTF-8"
	if req.IsHTML {
		contentType = "text/html; charset=UTF-8"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(req.To, ", "))
	if len(req.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(req.Cc, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", req.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
	buf.WriteString("\r\n")
	buf.WriteString(req.Body)

	return buf.Bytes()
}

func currencyLabel(code string) string {
	switch code {
	case "978", "":
		return "EUR"
	default:
		return code
	}
}
