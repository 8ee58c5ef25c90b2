package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`<p>Hi {{.Name}},</p>
<p>Welcome to HireHub. Please confirm your email address:</p>
<p><a href="{{.VerifyURL}}">Verify my email</a></p>
<p>If you did not create this account you can ignore this message.</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your HireHub password.</p>
<p><a href="{{.ResetURL}}">Choose a new password</a></p>
<p>The link is valid for 48 hours. If you did not ask for it, ignore this email.</p>`))
)

func WelcomeEmail(to, name, verifyURL string) (Message, error) {
	return render(welcomeTmpl, to, "Welcome to HireHub", map[string]string{"Name": name, "VerifyURL": verifyURL})
}

func PasswordResetEmail(to, name, resetURL string) (Message, error) {
	return render(resetTmpl, to, "Reset your HireHub password", map[string]string{"Name": name, "ResetURL": resetURL})
}

func render(t *template.Template, to, subject string, data map[string]string) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
