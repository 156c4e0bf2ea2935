package mail

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/avezina/identity-service/internal/domain"
)

var bodyTemplates = template.Must(template.New("bodies").Parse(`
{{- define "signup_verify" -}}
Hello,

Thanks for signing up. Confirm your email address by opening the link below:

{{.TokenURL}}

The link expires in {{.ExpiresLabel}}. If you did not create this account you
can ignore this message.
{{- end -}}

{{- define "reset_password" -}}
Hello,

We received a request to reset the password for this address. Open the link
below to choose a new password:

{{.TokenURL}}

The link expires in {{.ExpiresLabel}}. If you did not request a reset, no
action is needed and your password stays unchanged.
{{- end -}}
`))

func subjectFor(kind domain.TokenKind) (string, error) {
	switch kind {
	case domain.KindSignUpVerify:
		return "Verify your email address", nil
	case domain.KindResetPassword:
		return "Reset your password", nil
	default:
		return "", fmt.Errorf("no mail template for token kind %q", kind)
	}
}

func renderBody(msg Message) (string, error) {
	var sb strings.Builder
	if err := bodyTemplates.ExecuteTemplate(&sb, msg.BodyKind.String(), msg); err != nil {
		return "", err
	}
	return sb.String(), nil
}
