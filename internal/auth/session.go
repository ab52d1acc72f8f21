package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSession  = errors.New("invalid session value")
)

type Session struct {
	Token      string
	IdentityID string
	CreatedAt  time.Time
}

// stored as "<createdAtUnix>|<identityID>"
func sessionValue(createdAt time.Time, identityID string) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), identityID)
}

func parseSession(token, value string) (*Session, error) {
	createdAtStr, identityID, found := strings.Cut(value, "|")
	if !found || identityID == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSession, value)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSession, err)
	}
	return &Session{
		Token:      token,
		IdentityID: identityID,
		CreatedAt:  time.Unix(createdAtUnix, 0),
	}, nil
}

type SessionChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewSessionChecker(ttl time.Duration, redisClient *redis.Client) *SessionChecker {
	return &SessionChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (c *SessionChecker) Session(ctx context.Context, token string) (*Session, error) {
	value, err := c.redisClient.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session, err := parseSession(token, value)
	if err != nil {
		return nil, err
	}

	if time.Since(session.CreatedAt) > c.ttl {
		return nil, ErrSessionExpired
	}

	return session, nil
}

type sessionCtxKey struct{}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return session, ok && session != nil
}
