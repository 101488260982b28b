package rules

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"account-linker/internal/domain"
)

// Rule transforma el resultado de un login; devuelve error para abortarlo.
type Rule interface {
	Name() string
	Apply(ctx context.Context, in domain.Outcome) (domain.Outcome, error)
}

// Chain ejecuta reglas en orden y se detiene en el primer error.
type Chain struct {
	logger *zap.Logger
	rules  []Rule
}

func NewChain(logger *zap.Logger, rules ...Rule) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{logger: logger, rules: rules}
}

func (c *Chain) Run(ctx context.Context, in domain.Outcome) (domain.Outcome, error) {
	out := in
	for _, r := range c.rules {
		next, err := r.Apply(ctx, out)
		if err != nil {
			c.logger.Warn("rule failed",
				zap.String("rule", r.Name()),
				zap.String("user_id", in.User.UserID),
				zap.Error(err),
			)
			return domain.Outcome{}, fmt.Errorf("rule %s: %w", r.Name(), err)
		}
		out = next
	}
	return out, nil
}
