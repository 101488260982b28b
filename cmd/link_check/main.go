package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"account-linker/internal/domain"
	"account-linker/internal/rules"
	"account-linker/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"

	samlClientID = "saml-test-client"
)

// Scenario es un login simulado contra un directorio en memoria.
type Scenario struct {
	Name      string
	User      domain.IdentityRecord
	Context   domain.AuthContext
	Directory []domain.IdentityRecord
	Expect    Expectation
}

func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	failed := 0
	for _, sc := range scenarios() {
		fmt.Printf("%s[Escenario]%s %s\n", colorCyan, colorReset, sc.Name)

		dir := newMemoryDirectory(sc.Directory...)
		linkSvc := service.NewLinkService(logger, dir)
		chain := rules.NewChain(logger,
			rules.NewLinkRule(linkSvc),
			rules.NewSAMLMappingRule(samlClientID),
		)

		out, err := chain.Run(ctx, domain.Outcome{User: sc.User, Context: sc.Context})
		problems := checkOutcome(sc.Expect, out, err, dir.writes)
		if len(problems) == 0 {
			fmt.Printf("%sOK%s\n\n", colorGreen, colorReset)
			continue
		}
		failed++
		for _, p := range problems {
			fmt.Printf("%sFALLA%s %s\n", colorRed, colorReset, p)
		}
		fmt.Println()
	}

	fmt.Println("==== Resumen ====")
	fmt.Printf("Escenarios fallidos: %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func scenarios() []Scenario {
	primary := domain.IdentityRecord{
		UserID:        "ad|Mozilla-LDAP|jdoe",
		Email:         "jdoe@mozilla.com",
		EmailVerified: true,
		Identities:    []domain.Identity{{Provider: "ad", UserID: "Mozilla-LDAP|jdoe"}},
		AppMetadata:   domain.Metadata{"groups": []any{"staff"}},
		UserMetadata:  domain.Metadata{"locale": "fr"},
	}
	secondary := domain.IdentityRecord{
		UserID:        "github|4242",
		Email:         "jdoe@mozilla.com",
		EmailVerified: true,
		Identities:    []domain.Identity{{Provider: "github", UserID: "4242"}},
		UserMetadata:  domain.Metadata{"theme": "dark"},
	}
	third := secondary
	third.UserID = "google-oauth2|77"
	third.Identities = []domain.Identity{{Provider: "google-oauth2", UserID: "77"}}

	unverified := secondary
	unverified.EmailVerified = false

	return []Scenario{
		{
			Name:      "email sin verificar no toca el directorio",
			User:      unverified,
			Directory: []domain.IdentityRecord{primary, secondary},
		},
		{
			Name:      "una sola cuenta verificada",
			User:      primary,
			Directory: []domain.IdentityRecord{primary},
		},
		{
			Name:      "secundaria se vincula a la primaria",
			User:      secondary,
			Directory: []domain.IdentityRecord{primary, secondary},
			Expect: Expectation{
				PrimaryUser: primary.UserID,
				Writes: []string{
					"app_metadata:" + primary.UserID,
					"user_metadata:" + primary.UserID,
					"link:" + primary.UserID + ":github|4242",
				},
			},
		},
		{
			Name:      "tres cuentas verificadas es ambiguo",
			User:      secondary,
			Directory: []domain.IdentityRecord{primary, secondary, third},
			Expect:    Expectation{Err: service.ErrAmbiguousIdentity},
		},
		{
			Name:      "cliente SAML de prueba reescribe el email",
			User:      primary,
			Context:   domain.AuthContext{ClientID: samlClientID},
			Directory: []domain.IdentityRecord{primary},
			Expect:    Expectation{SAMLEmail: "jdoe@test.mozilla.com"},
		},
	}
}
