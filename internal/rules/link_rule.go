package rules

import (
	"context"

	"account-linker/internal/domain"
	"account-linker/internal/service"
)

// Reconciler es la parte de service.LinkService que usa la regla.
type Reconciler interface {
	Reconcile(ctx context.Context, user domain.IdentityRecord, authCtx domain.AuthContext) (domain.Outcome, error)
}

// LinkRule vincula cuentas con el mismo email verificado.
type LinkRule struct {
	reconciler Reconciler
}

func NewLinkRule(reconciler Reconciler) *LinkRule {
	return &LinkRule{reconciler: reconciler}
}

func (r *LinkRule) Name() string {
	return "link-users-by-email-with-metadata"
}

func (r *LinkRule) Apply(ctx context.Context, in domain.Outcome) (domain.Outcome, error) {
	return r.reconciler.Reconcile(ctx, in.User, in.Context)
}

// Planner es la parte de service.LinkService que decide sin escribir.
type Planner interface {
	Plan(ctx context.Context, user domain.IdentityRecord) (service.Decision, error)
}

// GuardedRule toma un lock por email alrededor de otra regla, solo cuando el login va a vincular.
type GuardedRule struct {
	inner   Rule
	planner Planner
	lock    service.LinkLock
}

// NewGuardedRule devuelve inner tal cual si no hay lock o planner configurado.
func NewGuardedRule(inner Rule, planner Planner, lock service.LinkLock) Rule {
	if lock == nil || planner == nil {
		return inner
	}
	return &GuardedRule{inner: inner, planner: planner, lock: lock}
}

func (r *GuardedRule) Name() string {
	return r.inner.Name()
}

func (r *GuardedRule) Apply(ctx context.Context, in domain.Outcome) (domain.Outcome, error) {
	if in.User.Email == "" || !in.User.EmailVerified {
		return r.inner.Apply(ctx, in)
	}

	decision, err := r.planner.Plan(ctx, in.User)
	if err != nil {
		return domain.Outcome{}, err
	}
	if decision.Kind != service.DecisionLink {
		return r.inner.Apply(ctx, in)
	}

	release, err := r.lock.Acquire(ctx, in.User.Email)
	if err != nil {
		return domain.Outcome{}, err
	}
	defer release()
	// inner vuelve a planificar dentro del lock: otro login pudo vincular entre medio.
	return r.inner.Apply(ctx, in)
}
