package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/ha-memory-server/oauthmodel"
)

// validatePKCE checks the authorize-time challenge. A challenge without a method is plain.
func validatePKCE(codeChallenge string, method oauthmodel.CodeMethodType, required bool) error {
	if codeChallenge == "" {
		if method != "" {
			return fmt.Errorf("code_challenge_method sent without code_challenge")
		}
		if required {
			return fmt.Errorf("PKCE required: code_challenge must be provided")
		}
		return nil
	}

	// RFC 7636: 43 to 128 characters
	if len(codeChallenge) < 43 || len(codeChallenge) > 128 {
		return fmt.Errorf("code_challenge length must be between 43 and 128 characters")
	}

	switch method {
	case "", oauthmodel.CodeMethodTypePlain, oauthmodel.CodeMethodTypeS256:
		return nil
	}
	return fmt.Errorf("code_challenge_method must be 'S256' or 'plain'")
}

func checkCodeChallenge(storedChallenge, verifier string, method oauthmodel.CodeMethodType) bool {
	if storedChallenge == "" { // No PKCE code challenge
		return true
	}
	if verifier == "" {
		return false
	}
	var computed string
	switch method {
	case oauthmodel.CodeMethodTypeS256:
		hash := sha256.Sum256([]byte(verifier))
		computed = base64.RawURLEncoding.EncodeToString(hash[:])
	case oauthmodel.CodeMethodTypePlain:
		computed = verifier
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedChallenge)) == 1
}
