package notification

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
)

type codeTemplate struct {
	subject string
	body    *template.Template
}

const codeFooter = `
This code is valid for {{.Minutes}} minutes. If you did not request it, you can ignore this email.

Need help? Contact {{.Support}}.
`

var codeTemplates = map[domain.Purpose]codeTemplate{
	domain.PurposeRecovery: {
		subject: "Trinity password reset code",
		body: template.Must(template.New("recovery").Parse(
			`Hello {{.Username}},

Use the code below to reset your Trinity account password:

    {{.Code}}
` + codeFooter)),
	},
	domain.PurposeView: {
		subject: "Trinity verification code to view a password",
		body: template.Must(template.New("view").Parse(
			`Hello {{.Username}},

Use the code below to reveal a stored password in your vault:

    {{.Code}}
` + codeFooter)),
	},
	domain.PurposeUpdate: {
		subject: "Trinity verification code to change a password",
		body: template.Must(template.New("update").Parse(
			`Hello {{.Username}},

Use the code below to change a stored password in your vault:

    {{.Code}}
` + codeFooter)),
	},
}

// Renderer builds the verification emails.
type Renderer struct {
	from    string
	support string
}

// NewRenderer creates a renderer that signs mails as from and points users
// at support.
func NewRenderer(from, support string) *Renderer {
	return &Renderer{from: from, support: support}
}

// VerificationCode renders the email carrying code for purpose.
func (r *Renderer) VerificationCode(u *domain.User, purpose domain.Purpose, code string, ttl time.Duration) (*Email, error) {
	tpl, ok := codeTemplates[purpose]
	if !ok {
		return nil, fmt.Errorf("no email template for purpose %q", purpose)
	}

	var body bytes.Buffer
	err := tpl.body.Execute(&body, struct {
		Username string
		Code     string
		Minutes  int
		Support  string
	}{u.Username, code, int(ttl.Minutes()), r.support})
	if err != nil {
		return nil, fmt.Errorf("render %s email: %w", purpose, err)
	}

	return &Email{To: u.Email, From: r.from, Subject: tpl.subject, Body: body.String()}, nil
}
