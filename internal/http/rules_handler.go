package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-linker/internal/domain"
	"account-linker/internal/rules"
	"account-linker/internal/service"
)

// Planner calcula la decisión de vinculación sin escribir.
type Planner interface {
	Plan(ctx context.Context, user domain.IdentityRecord) (service.Decision, error)
}

// RulesHandler expone la cadena de reglas como webhook de login.
type RulesHandler struct {
	logger  *zap.Logger
	chain   *rules.Chain
	planner Planner
}

func NewRulesHandler(logger *zap.Logger, chain *rules.Chain, planner Planner) *RulesHandler {
	return &RulesHandler{
		logger:  logger,
		chain:   chain,
		planner: planner,
	}
}

// Execute maneja POST /v1/rules/execute.
func (h *RulesHandler) Execute(c *gin.Context) {
	var req struct {
		User    domain.IdentityRecord `json:"user"`
		Context domain.AuthContext    `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.User.UserID == "" {
		h.logger.Warn("invalid rules request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	out, err := h.chain.Run(c.Request.Context(), domain.Outcome{User: req.User, Context: req.Context})
	if err != nil {
		status := statusForLinkError(err)
		h.logger.Error("rules execution failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("user_id", req.User.UserID),
			zap.Int("status", status),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": out.User, "context": out.Context})
}

// Plan maneja POST /v1/link/plan.
func (h *RulesHandler) Plan(c *gin.Context) {
	var req struct {
		User domain.IdentityRecord `json:"user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.User.UserID == "" {
		h.logger.Warn("invalid plan request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	decision, err := h.planner.Plan(c.Request.Context(), req.User)
	if err != nil {
		status := statusForLinkError(err)
		h.logger.Error("link plan failed", zap.String("user_id", req.User.UserID), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"decision": decision})
}

func statusForLinkError(err error) int {
	switch {
	case errors.Is(err, service.ErrAmbiguousIdentity),
		errors.Is(err, service.ErrLinkInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrDirectoryLookup),
		errors.Is(err, service.ErrMetadataUpdate),
		errors.Is(err, service.ErrIdentityLink):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
