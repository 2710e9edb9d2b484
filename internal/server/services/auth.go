// Package services contains server-side business logic. This file implements
// AuthService, which registers accounts, checks credentials and issues
// session tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/auth"
	"github.com/dmitrijs2005/tact0/internal/server/metrics"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10

	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes; longer passwords are refused
	// rather than silently truncated.
	maxPasswordBytes = 72
)

// Session is the outcome of a successful register or login: the public view
// of the account plus the signed token the transport layer must store.
type Session struct {
	User  models.Identity
	Token string
}

// AuthService provides the credential operations:
// - Register: create an account with the default role and open a session
// - Login: verify a password and open a session
type AuthService struct {
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	logger      logging.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	newID       func() string
}

// NewAuthService wires the service. m may be nil.
func NewAuthService(rm repomanager.RepositoryManager, codec *auth.Codec, logger logging.Logger, m *metrics.Metrics) *AuthService {
	return &AuthService{
		repomanager: rm,
		codec:       codec,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("github.com/dmitrijs2005/tact0/internal/server/services"),
		newID:       uuid.NewString,
	}
}

// Register validates the input, stores a new USER account and issues a token.
// An email that is already taken yields common.ErrAlreadyExists whether the
// conflict is seen by the pre-check or by the store's unique constraint.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	sess, err := s.register(ctx, email, password)
	s.metrics.AuthAttempt("register", outcomeOf(err))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.logger.Info(ctx, "account registered", "user_id", sess.User.ID, "email", sess.User.Email)
	return sess, nil
}

func (s *AuthService) register(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users()

	// The unique constraint decides; this only saves a bcrypt round for the
	// common case.
	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrAlreadyExists
	case !errors.Is(err, common.ErrNotFound):
		s.logger.Error(ctx, "lookup before register failed", "error", err)
		return nil, common.ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrInternal
	}

	user, err := repo.Create(ctx, &models.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.logger.Error(ctx, "account create failed", "error", err)
		return nil, common.ErrInternal
	}

	return s.open(ctx, user)
}

// Login checks the password of the account registered under email. A missing
// account and a wrong password produce the same common.ErrInvalidCredentials
// after comparable work.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	sess, err := s.login(ctx, email, password)
	s.metrics.AuthAttempt("login", outcomeOf(err))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) login(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	return s.open(ctx, user)
}

func (s *AuthService) open(ctx context.Context, user *models.User) (*Session, error) {
	id := user.Identity()
	token, err := s.codec.Issue(id)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrInternal
	}
	return &Session{User: id, Token: token}, nil
}

// credentials is the validated input of register, login and admin seeding.
type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateCredentials accepts a bare address with a dotted domain and a
// password of MinPasswordLength characters that bcrypt can hash whole.
func validateCredentials(email, password string) error {
	if err := validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if len(password) > maxPasswordBytes {
		return common.ErrValidation
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("tact0-timing-equalizer"), BcryptCost)
	})
	return dummy
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrInternal):
		return metrics.OutcomeError
	case errors.Is(err, common.ErrValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailure
	}
}
