package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const resetSubject = "Reset your ChonCance password"

var resetHTML = template.Must(template.New("reset").Parse(`
		<h2>ChonCance password reset</h2>
		<p>Hi {{.Name}},</p>
		<p>We received a request to reset your password. Click the link below to choose a new one:</p>
		<p><a href="{{.URL}}" style="background-color: #8BC34A; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
		<p>This link will expire in {{.Window}} and can be used once.</p>
		<p>If you didn't ask for this, you can ignore this email.</p>
`))

// formatWindow renders whole hours as hours and anything else as minutes, rounding up.
func formatWindow(d time.Duration) string {
	if d <= 0 {
		d = time.Minute
	}
	unit, n := "minute", int64((d+time.Minute-1)/time.Minute)
	if d%time.Hour == 0 {
		unit, n = "hour", int64(d/time.Hour)
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func resetBodies(toName, resetURL string, expiresIn time.Duration) (text, html string, err error) {
	window := formatWindow(expiresIn)
	text = fmt.Sprintf("Reset your ChonCance password with this link: %s\n\nThe link expires in %s and can be used once.", resetURL, window)

	var buf bytes.Buffer
	data := struct{ Name, URL, Window string }{toName, resetURL, window}
	if err := resetHTML.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render reset email: %w", err)
	}
	return text, buf.String(), nil
}
