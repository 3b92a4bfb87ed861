package messaging

import "strings"

// Placeholder tokens recognized by the renderer. Anything else wrapped in
// double braces is left in the body untouched.
const (
	tokenFirstName  = "{{first_name}}"
	tokenLastName   = "{{last_name}}"
	tokenSignupLink = "{{signup_link}}"
)

// TemplateVars holds the per-recipient substitution values.
type TemplateVars struct {
	FirstName  string
	LastName   string
	SignupLink string
}

// RenderTemplate substitutes the known placeholders in body. Empty values
// substitute to empty strings; unknown placeholders pass through verbatim.
func RenderTemplate(body string, vars TemplateVars) string {
	replacer := strings.NewReplacer(
		tokenFirstName, vars.FirstName,
		tokenLastName, vars.LastName,
		tokenSignupLink, vars.SignupLink,
	)
	return replacer.Replace(body)
}

// DefaultInvitationTemplate is the SMS body used when an invitation batch does
// not carry a custom message.
const DefaultInvitationTemplate = "Bonjour {{first_name}}, suivez mes arrivages de pêche en direct sur QuaiDirect : {{signup_link}}"

// invitationTemplates maps the identifiers accepted by the invitation
// endpoint to their SMS bodies.
var invitationTemplates = map[string]string{
	"invitation": DefaultInvitationTemplate,
	"relance":    "Bonjour {{first_name}}, pensez à rejoindre QuaiDirect pour suivre mes prochains arrivages : {{signup_link}}",
}

// InvitationTemplate returns the body registered under id.
func InvitationTemplate(id string) (string, bool) {
	body, ok := invitationTemplates[id]
	return body, ok
}
