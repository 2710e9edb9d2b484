package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/engine"
	"github.com/dmitrijs2005/tact0/internal/server/metrics"
	"github.com/dmitrijs2005/tact0/internal/server/models"
)

// EngineClient is the subset of *engine.Client the relay needs.
type EngineClient interface {
	Configured() bool
	Chat(ctx context.Context, req engine.Request) (*engine.Reply, error)
}

// ChatService forwards an authenticated user's message to the chat engine.
type ChatService struct {
	engine  EngineClient
	logger  logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewChatService(client EngineClient, logger logging.Logger, m *metrics.Metrics) *ChatService {
	return &ChatService{engine: client, logger: logger, metrics: m, now: time.Now}
}

// ConversationID is the engine conversation a user's messages belong to.
func ConversationID(userID string) string {
	return common.ConversationPrefix + userID
}

// Relay sends text on behalf of identity. Checks run in order: caller,
// message, engine configuration; none of them touch the network.
func (s *ChatService) Relay(ctx context.Context, identity *models.Identity, text string) (*engine.Reply, error) {
	if identity == nil {
		return nil, common.ErrUnauthorized
	}
	if strings.TrimSpace(text) == "" {
		return nil, common.ErrValidation
	}
	if s.engine == nil || !s.engine.Configured() {
		return nil, common.ErrMisconfigured
	}

	start := s.now()
	reply, err := s.engine.Chat(ctx, engine.Request{
		Message:   text,
		SessionID: ConversationID(identity.ID),
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		var ue *engine.UpstreamError
		switch {
		case errors.As(err, &ue):
			s.metrics.EngineCall(metrics.OutcomeFailure, elapsed)
			s.logger.Warn(ctx, "engine call failed", "status", ue.Status)
		case errors.Is(err, common.ErrInvalidResponse):
			s.metrics.EngineCall(metrics.OutcomeRejected, elapsed)
			s.logger.Warn(ctx, "engine reply rejected", "error", err)
		default:
			s.metrics.EngineCall(metrics.OutcomeError, elapsed)
			s.logger.Error(ctx, "engine call error", "error", err)
		}
		return nil, err
	}

	s.metrics.EngineCall(metrics.OutcomeSuccess, elapsed)
	return reply, nil
}
