package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/auth"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/repomanager"
)

// SessionResolver turns a session token into the identity of a live account.
type SessionResolver struct {
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	logger      logging.Logger
}

func NewSessionResolver(rm repomanager.RepositoryManager, codec *auth.Codec, logger logging.Logger) *SessionResolver {
	return &SessionResolver{repomanager: rm, codec: codec, logger: logger}
}

// Resolve returns (nil, nil) for an anonymous caller: no token, a token that
// does not verify, or a token whose account is gone. Only a store failure is
// an error, so callers can decide whether to fail closed.
//
// The returned identity is built from the stored account, not from the token
// claims, so role changes apply on the next request.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, nil
	}

	claimed, err := r.codec.Verify(token)
	if err != nil {
		return nil, nil
	}

	user, err := r.repomanager.Users().GetByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		r.logger.Error(ctx, "session account lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	id := user.Identity()
	return &id, nil
}
