// Package mail sends transactional email. The SMTP implementation submits
// over STARTTLS; the console implementation is for local development.
package mail

import (
	"errors"
	"fmt"
)

var ErrDelivery = errors.New("email delivery failed")

// Mailer is any service that can deliver a single HTML email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

const verificationTemplate = `
<html>
    <body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <div style="background-color: #f8f9fa; padding: 20px; text-align: center;">
            <h1 style="color: #333;">Welcome to Studyvant!</h1>
        </div>
        <div style="padding: 20px;">
            <p>Thank you for registering! Please verify your email address to complete your account setup.</p>
            <div style="text-align: center; margin: 30px 0;">
                <a href="%[1]s/verify/%[2]s"
                   style="background-color: #007bff; color: white; padding: 12px 25px;
                          text-decoration: none; border-radius: 5px;">
                    Verify Email
                </a>
            </div>
            <p style="color: #666; font-size: 0.9em;">
                If the button doesn't work, copy and paste this link into your browser:<br>
                %[1]s/verify/%[2]s
            </p>
        </div>
    </body>
</html>
`

// VerificationEmail renders the subject and HTML body for a verification
// email whose link embeds the single-use token.
func VerificationEmail(baseURL, token string) (subject, html string) {
	subject = "Verify Your Studyvant Account"
	html = fmt.Sprintf(verificationTemplate, baseURL, token)
	return subject, html
}
