package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-signing-secret"
	testClientID = "mcp_client_abc"
	testIssuer   = "http://localhost:8099"
)

func fixedNow() time.Time {
	return time.Unix(1_700_000_000, 0)
}

func newCodec(t *testing.T, secret string, now func() time.Time) *token.Codec {
	t.Helper()
	c, err := token.NewHMACCodec(secret, token.WithNowFunc(now), token.WithIssuer(testIssuer))
	require.NoError(t, err)
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newCodec(t, testSecret, fixedNow)

	claims := codec.NewAccessClaims(testClientID, "read write", time.Hour)
	raw, err := codec.Encode(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(raw, "."), 3)

	decoded, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, claims.ClientID, decoded.ClientID)
	require.Equal(t, claims.Scope, decoded.Scope)
	require.Equal(t, testClientID, decoded.Subject)
	require.Equal(t, testIssuer, decoded.Issuer)
	require.Equal(t, claims.ID, decoded.ID)
	require.Equal(t, fixedNow().Unix(), decoded.IssuedAt.Unix())
	require.Equal(t, fixedNow().Add(time.Hour).Unix(), decoded.ExpiresAt.Unix())
	require.ElementsMatch(t, []string{"read", "write"}, decoded.Scopes())
}

func TestCodec_PartsAreBase64URL(t *testing.T) {
	codec := newCodec(t, testSecret, fixedNow)
	raw, err := codec.Encode(codec.NewAccessClaims(testClientID, "read", time.Minute))
	require.NoError(t, err)

	for _, part := range strings.Split(raw, ".") {
		_, err := base64.RawURLEncoding.DecodeString(part)
		require.NoError(t, err)
	}
}

func TestCodec_WrongSecret(t *testing.T) {
	issuer := newCodec(t, testSecret, fixedNow)
	verifier := newCodec(t, "another-secret", fixedNow)

	raw, err := issuer.Encode(issuer.NewAccessClaims(testClientID, "read", time.Hour))
	require.NoError(t, err)

	_, err = verifier.Decode(raw)
	require.ErrorIs(t, err, token.ErrSignature)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestCodec_Expired(t *testing.T) {
	now := fixedNow()
	codec := newCodec(t, testSecret, func() time.Time { return now })

	raw, err := codec.Encode(codec.NewAccessClaims(testClientID, "read", time.Minute))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, token.ErrExpired)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestCodec_ExpiredWithWrongSecretIsSignatureError(t *testing.T) {
	now := fixedNow()
	issuer := newCodec(t, testSecret, func() time.Time { return now })
	verifier := newCodec(t, "another-secret", func() time.Time { return now })

	raw, err := issuer.Encode(issuer.NewAccessClaims(testClientID, "read", time.Minute))
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = verifier.Decode(raw)
	require.ErrorIs(t, err, token.ErrSignature)
}

func TestCodec_Format(t *testing.T) {
	codec := newCodec(t, testSecret, fixedNow)

	tests := map[string]string{
		"empty":        "",
		"two parts":    "abc.def",
		"four parts":   "a.b.c.d",
		"not base64":   "!!!.???.***",
		"not json":     base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".e30.sig",
		"missing exp":  mustSign(t, jwt.MapClaims{"client_id": testClientID}),
		"tampered sig": "",
	}
	good, err := codec.Encode(codec.NewAccessClaims(testClientID, "read", time.Hour))
	require.NoError(t, err)
	tests["tampered sig"] = good[:len(good)-4] + "AAAA"

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(raw)
			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}

func TestCodec_RejectsNoneAlgorithm(t *testing.T) {
	codec := newCodec(t, testSecret, fixedNow)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"client_id": testClientID,
		"exp":       fixedNow().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, token.ErrSignature)
}

func TestNewHMACCodec_GeneratesSecret(t *testing.T) {
	a := newCodec(t, "", fixedNow)
	b := newCodec(t, "", fixedNow)

	raw, err := a.Encode(a.NewAccessClaims(testClientID, "", time.Hour))
	require.NoError(t, err)

	_, err = a.Decode(raw)
	require.NoError(t, err)
	_, err = b.Decode(raw)
	require.ErrorIs(t, err, token.ErrSignature)
}

func mustSign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := token.NewHMACSigner([]byte(testSecret)).Sign(claims)
	require.NoError(t, err)
	return raw
}
