package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"account-linker/internal/directory"
	"account-linker/internal/domain"
)

var (
	ErrDirectoryLookup   = errors.New("directory lookup failed")
	ErrAmbiguousIdentity = errors.New("ambiguous identity")
	ErrMetadataUpdate    = errors.New("metadata update failed")
	ErrIdentityLink      = errors.New("identity link failed")
)

// AmbiguousIdentityError reporta más de dos cuentas verificadas con el mismo email.
type AmbiguousIdentityError struct {
	UserID       string
	Email        string
	CandidateIDs []string
}

func (e *AmbiguousIdentityError) Error() string {
	if len(e.CandidateIDs) == 0 {
		return fmt.Sprintf("error linking account %s: no verified identities with the email address %s", e.UserID, e.Email)
	}
	return fmt.Sprintf("error linking account %s as there are over 2 identities with the email address %s %s",
		e.UserID, e.Email, strings.Join(e.CandidateIDs, ","))
}

func (e *AmbiguousIdentityError) Is(target error) bool {
	return target == ErrAmbiguousIdentity
}

// LinkService vincula cuentas que comparten un email verificado.
//
// No toma locks: dos logins concurrentes para el mismo email pueden observar los
// mismos candidatos y vincular dos veces. La exclusión, si se necesita, vive fuera
// (rules.GuardedRule o el propio directorio).
type LinkService struct {
	logger    *zap.Logger
	directory directory.Directory
}

func NewLinkService(logger *zap.Logger, dir directory.Directory) *LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkService{
		logger:    logger,
		directory: dir,
	}
}

// Reconcile corre el pipeline completo para un login y devuelve el usuario y el contexto resultantes.
func (s *LinkService) Reconcile(ctx context.Context, user domain.IdentityRecord, authCtx domain.AuthContext) (domain.Outcome, error) {
	unchanged := domain.Outcome{User: user, Context: authCtx}

	decision, err := s.Plan(ctx, user)
	if err != nil {
		return domain.Outcome{}, err
	}

	switch decision.Kind {
	case DecisionLink:
		return s.link(ctx, *decision.Secondary, *decision.Primary, authCtx)
	case DecisionAmbiguous:
		err := &AmbiguousIdentityError{UserID: user.UserID, Email: user.Email, CandidateIDs: decision.CandidateIDs}
		s.logger.Error("ambiguous identities for email",
			zap.String("user_id", user.UserID),
			zap.String("email", user.Email),
			zap.Strings("candidate_ids", decision.CandidateIDs),
		)
		return domain.Outcome{}, err
	case DecisionUnresolved:
		s.logger.Warn("no primary identity for multi-identity user, skipping link",
			zap.String("user_id", user.UserID),
			zap.Strings("candidate_ids", decision.CandidateIDs),
		)
		return unchanged, nil
	default:
		return unchanged, nil
	}
}

// Plan ejecuta verificación, búsqueda y decisión sin escribir en el directorio.
func (s *LinkService) Plan(ctx context.Context, user domain.IdentityRecord) (Decision, error) {
	if user.Email == "" || !user.EmailVerified {
		return Decision{Kind: DecisionNoAction}, nil
	}
	if s.directory == nil {
		return Decision{}, errors.New("link service not configured")
	}

	found, err := s.directory.UsersByEmail(ctx, user.Email)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrDirectoryLookup, err)
	}
	candidates := verifiedOnly(found)

	return Decide(user, candidates), nil
}

func (s *LinkService) link(ctx context.Context, secondary, primary domain.IdentityRecord, authCtx domain.AuthContext) (domain.Outcome, error) {
	secondary = prepareSecondary(secondary)
	if len(secondary.Identities) == 0 {
		return domain.Outcome{}, fmt.Errorf("%w: account %s has no identities", ErrIdentityLink, secondary.UserID)
	}
	primaryUserMetadata := primary.UserMetadata.Clone()

	s.logger.Info("linking secondary identity into primary identity",
		zap.String("secondary_user_id", secondary.UserID),
		zap.String("primary_user_id", primary.UserID),
	)

	if err := s.directory.UpdateAppMetadata(ctx, primary.UserID, secondary.AppMetadata); err != nil {
		s.logger.Error("update app metadata failed", zap.String("primary_user_id", primary.UserID), zap.Error(err))
		return domain.Outcome{}, fmt.Errorf("%w: app metadata: %w", ErrMetadataUpdate, err)
	}

	merged := MergeUserMetadata(secondary.UserMetadata, primary.UserMetadata)
	if err := s.directory.UpdateUserMetadata(ctx, primary.UserID, merged); err != nil {
		s.logger.Error("update user metadata failed", zap.String("primary_user_id", primary.UserID), zap.Error(err))
		return domain.Outcome{}, fmt.Errorf("%w: user metadata: %w", ErrMetadataUpdate, err)
	}

	identity := domain.Identity{
		Provider: secondary.Identities[0].Provider,
		UserID:   secondary.Identities[0].UserID,
	}
	if err := s.directory.LinkIdentity(ctx, primary.UserID, identity); err != nil {
		// La metadata ya escrita en la primaria no se revierte.
		s.logger.Error("error linking account",
			zap.String("secondary_user_id", secondary.UserID),
			zap.String("primary_user_id", primary.UserID),
			zap.Error(err),
		)
		return domain.Outcome{}, fmt.Errorf("%w: %w", ErrIdentityLink, err)
	}

	authCtx.PrimaryUser = primary.UserID
	authCtx.PrimaryUserMetadata = primaryUserMetadata
	return domain.Outcome{User: secondary, Context: authCtx}, nil
}
