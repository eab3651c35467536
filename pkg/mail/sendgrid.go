package mail

import (
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGridSender constructs a SendGrid-backed sender.
func NewSendGridSender(key, fromName, fromEmail string, logger *zap.Logger) *SendGridSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridSender{
		key:    key,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

// Send dispatches the message on a background goroutine.
func (s *SendGridSender) Send(msg Message) {
	go func() {
		m := sgmail.NewV3Mail()
		m.SetFrom(s.from)

		p := sgmail.NewPersonalization()
		p.Subject = msg.Subject
		p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))
		m.AddPersonalizations(p)
		m.AddContent(sgmail.NewContent("text/plain", msg.Body))

		req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
		req.Method = http.MethodPost
		req.Body = sgmail.GetRequestBody(m)

		res, err := sendgrid.API(req)
		if err != nil {
			s.logger.Warn("sendgrid delivery failed", zap.Error(err), zap.String("to", msg.ToEmail))
			return
		}
		if res.StatusCode >= http.StatusBadRequest {
			s.logger.Warn("sendgrid delivery rejected", zap.Int("status", res.StatusCode), zap.String("to", msg.ToEmail))
		}
	}()
}

// ConsoleSender logs messages instead of delivering them. Used in development
// and whenever no API key is configured.
type ConsoleSender struct {
	logger *zap.Logger
}

// NewConsoleSender constructs a logging sender.
func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{logger: logger}
}

// Send logs the message.
func (s *ConsoleSender) Send(msg Message) {
	s.logger.Info("mail (console)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
}
