package main

import (
	"errors"
	"fmt"
	"slices"

	"account-linker/internal/domain"
)

// Expectation describe lo que debe pasar al correr un escenario.
type Expectation struct {
	Err         error
	PrimaryUser string
	Writes      []string
	SAMLEmail   string
}

// checkOutcome compara el resultado de un escenario con lo esperado y devuelve las diferencias.
func checkOutcome(exp Expectation, out domain.Outcome, err error, writes []string) []string {
	var problems []string

	switch {
	case exp.Err == nil && err != nil:
		problems = append(problems, fmt.Sprintf("error inesperado: %v", err))
	case exp.Err != nil && !errors.Is(err, exp.Err):
		problems = append(problems, fmt.Sprintf("se esperaba error %v, se obtuvo %v", exp.Err, err))
	}
	if err != nil {
		// Con error, solo se verifican las escrituras ya hechas.
		if !slices.Equal(writes, exp.Writes) {
			problems = append(problems, fmt.Sprintf("escrituras %v, se esperaba %v", writes, exp.Writes))
		}
		return problems
	}

	if out.Context.PrimaryUser != exp.PrimaryUser {
		problems = append(problems, fmt.Sprintf("primaryUser %q, se esperaba %q", out.Context.PrimaryUser, exp.PrimaryUser))
	}
	if exp.PrimaryUser != "" && out.Context.PrimaryUserMetadata == nil {
		problems = append(problems, "primaryUserMetadata vacío tras vincular")
	}
	if !slices.Equal(writes, exp.Writes) {
		problems = append(problems, fmt.Sprintf("escrituras %v, se esperaba %v", writes, exp.Writes))
	}
	if out.User.SAMLEmail != exp.SAMLEmail {
		problems = append(problems, fmt.Sprintf("myemail %q, se esperaba %q", out.User.SAMLEmail, exp.SAMLEmail))
	}
	return problems
}
