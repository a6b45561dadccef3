package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Codec mints and verifies compact HS256 access tokens (header.payload.signature).
// One secret is used for the lifetime of the process; there is no key rotation.
type Codec struct {
	signer  Signer
	issuer  string
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// NewHMACCodec builds a Codec around secret. An empty secret is replaced with a
// random one, so tokens minted by this process stop verifying after a restart.
func NewHMACCodec(secret string, options ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		generated, err := GenerateSecret()
		if err != nil {
			return nil, errors.Wrap(err, "[NewHMACCodec]")
		}
		log.Warn().Msg("No OAuth signing secret configured, generated a random one; access tokens will not survive a restart")
		secret = generated
	}
	return NewCodec(NewHMACSigner([]byte(secret)), options...), nil
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{
		signer: signer,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

// NewAccessClaims builds the claims for a client access token valid for ttl.
func (c *Codec) NewAccessClaims(clientID, scope string, ttl time.Duration) *Claims {
	now := c.nowFunc()
	return &Claims{
		ClientID: clientID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
}

// Encode signs claims. The caller is responsible for exp/iat.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("[Codec.Encode] nil claims")
	}
	return c.signer.Sign(claims)
}

// Decode verifies the signature first and the expiry second. Errors are ErrFormat,
// ErrSignature or ErrExpired.
func (c *Codec) Decode(raw string) (*Claims, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, ErrFormat
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if _, err := parser.ParseWithClaims(raw, claims, c.signer.GetVerificationKey); err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrap(ErrSignature, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return errors.Wrap(ErrFormat, err.Error())
	}
}
