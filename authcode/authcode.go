// Package authcode issues and redeems single-use, time-bounded authorization codes.
package authcode

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/pkg/errors"
)

const (
	DefaultTTL        = 10 * time.Minute
	defaultCodeLength = 32
)

// ErrInvalidGrant is returned for unknown, already redeemed and expired codes alike.
var ErrInvalidGrant = fmt.Errorf("authorization code invalid or expired: %w", apperrors.ErrInvalidGrant)

// Grant is the context captured at authorize time and handed back on redemption.
type Grant struct {
	Code                string
	ClientID            string
	RedirectURI         string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
}

// IssueRequest carries the authorize parameters that are bound to a code.
type IssueRequest struct {
	ClientID            string
	RedirectURI         string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// Store is a thread-safe in-memory code store.
type Store struct {
	mu         sync.Mutex
	grants     map[string]*Grant
	ttl        time.Duration
	codeLength int
	nowTime    func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithCodeLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func NewStore(options ...Option) *Store {
	s := &Store{
		grants:     make(map[string]*Grant),
		ttl:        DefaultTTL,
		codeLength: defaultCodeLength,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Issue generates a random code bound to req and valid for the store TTL.
func (s *Store) Issue(_ context.Context, req IssueRequest) (string, error) {
	if req.ClientID == "" {
		return "", errors.New("[authcode.Issue] client id cannot be empty")
	}

	b := make([]byte, s.codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[authcode.Issue] rand.Read")
	}
	code := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[code] = &Grant{
		Code:                code,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		ExpiresAt:           s.nowTime().Add(s.ttl),
	}
	return code, nil
}

// Redeem consumes code. Lookup, expiry check and delete happen under one lock,
// so concurrent redemptions of the same code cannot both succeed.
func (s *Store) Redeem(_ context.Context, code string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[code]
	if !ok {
		return nil, ErrInvalidGrant
	}
	delete(s.grants, code)

	if s.nowTime().After(grant.ExpiresAt) {
		return nil, ErrInvalidGrant
	}
	cp := *grant
	return &cp, nil
}

// Purge drops expired codes and reports how many were removed.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowTime()
	removed := 0
	for code, grant := range s.grants {
		if now.After(grant.ExpiresAt) {
			delete(s.grants, code)
			removed++
		}
	}
	return removed
}

// Len is the number of outstanding codes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}
