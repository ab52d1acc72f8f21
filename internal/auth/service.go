package auth

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfitpro/bitfit/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL        = 24 * 7 * time.Hour
	MinPasswordLength = 8
	sessionKeyPrefix  = "session||"
	tokensSetKey      = "bitfit-sessions"
	tokenLength       = 35
)

var (
	ErrWrongCredentials = errors.New("wrong credentials")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrWeakPassword     = errors.New("password too short")
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountsRepo interface {
	Create(ctx context.Context, account *Account) error
	ByEmail(ctx context.Context, email string) (*Account, error)
	ByID(ctx context.Context, id string) (*Account, error)
}

type Service struct {
	redisClient *redis.Client
	accounts    accountsRepo
	ttl         time.Duration
	adminEmail  string
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	ttl time.Duration,
	redisClient *redis.Client,
	accounts accountsRepo,
	adminEmail string,
) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		accounts:       accounts,
		adminEmail:     NormalizeEmail(adminEmail),
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *Service) SignUp(ctx context.Context, email, password, name string) (*Account, error) {
	email = NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := pkg.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := as.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (as *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, error) {
	account, err := as.accounts.ByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", ErrWrongCredentials
		}
		return "", fmt.Errorf("get account: %w", err)
	}

	if !pkg.CheckPasswordHash(creds.Password, account.PasswordHash) {
		return "", ErrWrongCredentials
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	cmdSet := as.redisClient.Set(ctx, sessionKey, sessionValue(createdAt, account.ID), 0)
	if err := cmdSet.Err(); err != nil {
		return "", err
	}

	// add token to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Logout reports whether a session existed for the token.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	deleted, err := as.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return false, err
	}

	// remove token from the list of sessions
	cmdSRem := as.redisClient.SRem(ctx, tokensSetKey, token)
	if err := cmdSRem.Err(); err != nil {
		return false, err
	}

	return deleted > 0, nil
}

func (as *Service) Account(ctx context.Context, identityID string) (*Account, error) {
	return as.accounts.ByID(ctx, identityID)
}

// IsAdmin reports whether the identity belongs to the configured admin e-mail.
func (as *Service) IsAdmin(ctx context.Context, identityID string) (bool, error) {
	if as.adminEmail == "" {
		return false, nil
	}
	account, err := as.accounts.ByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.Email == as.adminEmail, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Infof("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		cmd := as.redisClient.Get(ctx, sessionKeyPrefix+token)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				// key is gone, drop the dangling set member
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		session, err := parseSession(token, cmd.Val())
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(session.CreatedAt) > as.ttl {
			log.Debugf("=>\twill clean the session with token: %s", token)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := as.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}

		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
	}

	log.Infof("=> auth service, scan and clean done, removed %d sessions", len(toRemove))
}
