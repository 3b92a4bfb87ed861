package messaging

import "testing"

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		body string
		vars TemplateVars
		want string
	}{
		{
			name: "all placeholders",
			body: "Bonjour {{first_name}} {{last_name}}, inscrivez-vous : {{signup_link}}",
			vars: TemplateVars{FirstName: "Marie", LastName: "Le Gall", SignupLink: "https://quaidirect.fr/inscription"},
			want: "Bonjour Marie Le Gall, inscrivez-vous : https://quaidirect.fr/inscription",
		},
		{
			name: "empty first name substitutes to empty",
			body: "Bonjour {{first_name}}, arrivage demain",
			vars: TemplateVars{},
			want: "Bonjour , arrivage demain",
		},
		{
			name: "unknown placeholder passes through",
			body: "Bonjour {{first_name}}, code {{promo_code}}",
			vars: TemplateVars{FirstName: "Yann"},
			want: "Bonjour Yann, code {{promo_code}}",
		},
		{
			name: "no placeholders",
			body: "Vente annulée ce soir",
			vars: TemplateVars{FirstName: "Yann", LastName: "Morvan"},
			want: "Vente annulée ce soir",
		},
		{
			name: "repeated placeholder",
			body: "{{first_name}}, oui {{first_name}} !",
			vars: TemplateVars{FirstName: "Léa"},
			want: "Léa, oui Léa !",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderTemplate(tc.body, tc.vars); got != tc.want {
				t.Fatalf("RenderTemplate = %q, want %q", got, tc.want)
			}
		})
	}
}
