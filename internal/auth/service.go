package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/user"
	"warehouse-be/internal/utils"

	"go.uber.org/zap"
)

const minPasswordLen = 8

var ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Service interface {
	Register(ctx context.Context, email, password string) (user.User, error)
	Login(ctx context.Context, email, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (utils.Identity, error)
	Me(ctx context.Context) (user.User, error)
}

type service struct {
	conn    *sql.DB
	users   user.Repository
	issuer  *Issuer
	refresh *RefreshTokens
}

func NewService(conn *sql.DB, users user.Repository, issuer *Issuer, refresh *RefreshTokens) Service {
	return &service{conn: conn, users: users, issuer: issuer, refresh: refresh}
}

func (s *service) Register(ctx context.Context, email, password string) (user.User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return user.User{}, apperr.Validation("invalid email")
	}
	email = addr.Address
	if len(password) < minPasswordLen {
		return user.User{}, apperr.Validation("password must be at least 8 characters")
	}

	hashed, err := user.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return user.User{}, apperr.Internal("could not register user", err)
	}

	u, err := s.users.Create(ctx, email, hashed, user.RoleOperator)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return user.User{}, err
		}
		log.Error("failed to create user", zap.Error(err))
		return user.User{}, apperr.Internal("could not register user", err)
	}

	log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Info("login rejected: unknown email")
			return TokenPair{}, ErrInvalidCredentials
		}
		log.Error("failed to load user", zap.Error(err))
		return TokenPair{}, apperr.Internal("could not log in", err)
	}

	if !user.CheckPasswordHash(password, u.PasswordHash) {
		log.Info("login rejected: password mismatch", zap.Int64("user_id", u.ID))
		return TokenPair{}, ErrInvalidCredentials
	}

	return s.issuePair(ctx, s.conn, u)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Refresh"),
	)

	var pair TokenPair
	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		userID, err := s.refresh.Rotate(ctx, tx, refreshToken)
		if err != nil {
			return err
		}

		u, err := user.NewRepository(tx).FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		pair, err = s.issuePair(ctx, tx, u)
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			log.Info("refresh rejected")
			return TokenPair{}, err
		}
		log.Error("refresh failed", zap.Error(err))
		return TokenPair{}, apperr.Internal("could not refresh token", err)
	}

	return pair, nil
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Revoke(ctx, s.conn, refreshToken); err != nil {
		logger.FromCtx(ctx).Error("logout failed", zap.Error(err))
		return apperr.Internal("could not log out", err)
	}
	return nil
}

// Authenticate resolves an access token to the identity stored for its
// subject. Deleted users are rejected even while their token is unexpired.
func (s *service) Authenticate(ctx context.Context, accessToken string) (utils.Identity, error) {
	claims, err := s.issuer.Parse(accessToken)
	if err != nil {
		return utils.Identity{}, err
	}
	userID, _ := claims.UserID()

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return utils.Identity{}, ErrInvalidToken
		}
		return utils.Identity{}, apperr.Internal("could not authenticate", err)
	}

	return utils.Identity{UserID: u.ID, Email: u.Email, Role: string(u.Role)}, nil
}

func (s *service) Me(ctx context.Context) (user.User, error) {
	id, ok := utils.IdentityFromContext(ctx)
	if !ok {
		return user.User{}, apperr.Unauthorized("not authenticated")
	}

	u, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, apperr.Unauthorized("not authenticated")
		}
		return user.User{}, apperr.Internal("could not load user", err)
	}
	return u, nil
}

func (s *service) issuePair(ctx context.Context, q db.DBTX, u user.User) (TokenPair, error) {
	access, err := s.issuer.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return TokenPair{}, apperr.Internal("could not issue token", err)
	}

	refresh, err := s.refresh.Issue(ctx, q, u.ID)
	if err != nil {
		return TokenPair{}, apperr.Internal("could not issue token", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.issuer.TTL().Seconds()),
	}, nil
}
