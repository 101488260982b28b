package rules

import (
	"context"
	"strings"

	"account-linker/internal/domain"
)

const (
	claimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimEmailAddress   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimEmail          = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/email"

	samlEmailAttribute = "myemail"
	nameIDFormatEmail  = "urn:oasis:names:tc:SAML:2.0:nameid-format:email"
)

// SAMLMappingRule reescribe el email al dominio de pruebas para un único cliente SAML.
type SAMLMappingRule struct {
	clientID string
	from     string
	to       string
}

func NewSAMLMappingRule(clientID string) *SAMLMappingRule {
	return &SAMLMappingRule{
		clientID: clientID,
		from:     "mozilla.com",
		to:       "test.mozilla.com",
	}
}

func (r *SAMLMappingRule) Name() string {
	return "test-mozilla-com-saml-mapping"
}

func (r *SAMLMappingRule) Apply(_ context.Context, in domain.Outcome) (domain.Outcome, error) {
	if r.clientID == "" || in.Context.ClientID != r.clientID {
		return in, nil
	}

	out := in
	out.User.SAMLEmail = strings.Replace(in.User.Email, r.from, r.to, 1)

	saml := domain.SAMLConfiguration{}
	if in.Context.SAMLConfiguration != nil {
		saml = *in.Context.SAMLConfiguration
	}
	saml.Mappings = map[string]string{
		claimNameIdentifier: samlEmailAttribute,
		claimEmailAddress:   samlEmailAttribute,
		claimEmail:          samlEmailAttribute,
	}
	saml.NameIdentifierFormat = nameIDFormatEmail
	out.Context.SAMLConfiguration = &saml

	return out, nil
}
