// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendPipelineFailureAlert(toEmail, callId, reason string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendPipelineFailureAlert notifies an operator that a response hit a hard
// failure and needs a manual reset before the pipeline will touch it again.
func (s *emailService) SendPipelineFailureAlert(toEmail, callId, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Interview response %s needs attention", callId))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Response pipeline failure</h2>
			<p>Call <strong>%s</strong> was marked failed and will not be retried automatically.</p>
			<p>Reason: %s</p>
			<p>Use the dashboard to inspect the response and reset it once the root cause is fixed.</p>
		</div>
	`, callId, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure alert for %s: %v\n", callId, err)
		return err
	}

	fmt.Printf("[MAILER] Failure alert for %s sent to %s\n", callId, toEmail)
	return nil
}
