package sessionkit

import "log"

// SendEmail interface allows applications to provide their own email sending implementation
type SendEmail interface {
	SendMagicLinkEmail(to string, loginLink string) error
}

// ConsoleEmailSender is a development implementation that logs emails to console
type ConsoleEmailSender struct{}

func (c *ConsoleEmailSender) SendMagicLinkEmail(to string, loginLink string) error {
	log.Printf("\n=== EMAIL: Magic Link ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Your login link")
	log.Printf("Body: Click to sign in: %s", loginLink)
	log.Printf("=========================\n")
	return nil
}
