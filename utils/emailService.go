package utils

import (
	"fmt"
	"log"
	"time"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends a transactional email through SendGrid. Sending is disabled
// when no API key is configured; callers treat failures as best-effort.
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendgridAPIKey == "" {
		log.Printf("[EMAIL] Skipping email to %s (no API key): %s", toEmail, subject)
		return nil
	}

	from := mail.NewEmail(config.AppConfig.EmailFromName, config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// SendEnrollmentConfirmation emails the student after a successful enrollment
func SendEnrollmentConfirmation(toEmail, toName, courseTitle, receiptNumber string) {
	body := fmt.Sprintf(`
		<h2>Welcome aboard, %s!</h2>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<p>Your receipt number is <strong>%s</strong>.</p>
		<p>Happy learning!</p>`, toName, courseTitle, receiptNumber)

	if err := SendEmail(toEmail, toName, "Enrollment confirmed: "+courseTitle, body); err != nil {
		log.Printf("[EMAIL] Failed to send enrollment confirmation to %s: %v", toEmail, err)
	}
}

// SendCertificateIssued emails the student a link to the issued certificate
func SendCertificateIssued(toEmail, toName, courseTitle, certificateNumber, downloadURL string) {
	body := fmt.Sprintf(`
		<h2>Congratulations, %s!</h2>
		<p>You completed <strong>%s</strong>.</p>
		<p>Your certificate <strong>%s</strong> is ready: <a href="%s">download it here</a>.</p>`,
		toName, courseTitle, certificateNumber, downloadURL)

	if err := SendEmail(toEmail, toName, "Your certificate for "+courseTitle, body); err != nil {
		log.Printf("[EMAIL] Failed to send certificate email to %s: %v", toEmail, err)
	}
}

// SendAccessExpiryReminder warns the student that course access ends soon
func SendAccessExpiryReminder(toEmail, toName, courseTitle string, expiresAt *time.Time) {
	when := "soon"
	if expiresAt != nil {
		when = expiresAt.Format("January 2, 2006")
	}
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Your access to <strong>%s</strong> ends on <strong>%s</strong>.</p>
		<p>Finish your remaining lectures before then!</p>`, toName, courseTitle, when)

	if err := SendEmail(toEmail, toName, "Course access expiring: "+courseTitle, body); err != nil {
		log.Printf("[EMAIL] Failed to send expiry reminder to %s: %v", toEmail, err)
	}
}
