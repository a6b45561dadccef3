package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/ha-memory-server/authcode"
	"github.com/jrsteele09/ha-memory-server/clients"
	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/internal/metrics"
	"github.com/jrsteele09/ha-memory-server/oauthmodel"
	"github.com/jrsteele09/ha-memory-server/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AuthorizationRedirect is called once a code has been issued. redirectURI is the
// validated client callback, code the fresh authorization code and state the
// opaque value from the authorize request, echoed back unchanged.
type AuthorizationRedirect func(redirectURI string, code string, state string)

const defaultAccessTokenTTL = time.Hour

// AuthorizationService implements the authorization code flow for dynamically
// registered clients. Approval is automatic: the server assumes a single trusted
// operator, so there is no login or consent step between authorize and code issuance.
type AuthorizationService struct {
	clients        *clients.Registry
	codes          *authcode.Store
	codec          *token.Codec
	accessTokenTTL time.Duration
	requirePKCE    bool
	metrics        metrics.Recorder
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithAccessTokenTTL sets the lifetime of minted access tokens.
func WithAccessTokenTTL(ttl time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if ttl > 0 {
			as.accessTokenTTL = ttl
		}
	}
}

// WithRequirePKCE rejects authorize requests that carry no code_challenge.
func WithRequirePKCE(required bool) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.requirePKCE = required
	}
}

func WithMetrics(recorder metrics.Recorder) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		if recorder != nil {
			as.metrics = recorder
		}
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(
	registry *clients.Registry,
	codes *authcode.Store,
	codec *token.Codec,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if registry == nil {
		return nil, errors.New("[NewAuthorizationService] client registry is required")
	}
	if codes == nil {
		return nil, errors.New("[NewAuthorizationService] code store is required")
	}
	if codec == nil {
		return nil, errors.New("[NewAuthorizationService] token codec is required")
	}

	as := &AuthorizationService{
		clients:        registry,
		codes:          codes,
		codec:          codec,
		accessTokenTTL: defaultAccessTokenTTL,
		metrics:        metrics.Noop{},
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// Metadata returns the discovery document for an issuer rooted at baseURL.
func (as *AuthorizationService) Metadata(baseURL string) *oauthmodel.ServerMetadata {
	return &oauthmodel.ServerMetadata{
		Issuer:                            baseURL,
		AuthorizationEndpoint:             baseURL + "/oauth/authorize",
		TokenEndpoint:                     baseURL + "/oauth/token",
		RegistrationEndpoint:              baseURL + "/oauth/register",
		JWKSURI:                           baseURL + "/.well-known/jwks.json",
		ScopesSupported:                   append([]string(nil), oauthmodel.SupportedScopes...),
		ResponseTypesSupported:            []string{string(oauthmodel.CodeResponseType)},
		ResponseModesSupported:            []string{"query"},
		GrantTypesSupported:               []string{string(oauthmodel.AuthorizationCodeGrant)},
		TokenEndpointAuthMethodsSupported: []string{clients.AuthMethodClientSecretPost, clients.AuthMethodClientSecretBasic},
		CodeChallengeMethodsSupported:     []string{string(oauthmodel.CodeMethodTypeS256), string(oauthmodel.CodeMethodTypePlain)},
	}
}

// ProtectedResource describes the memory API and the authorization server guarding it.
func (as *AuthorizationService) ProtectedResource(baseURL string) *oauthmodel.ProtectedResourceMetadata {
	return &oauthmodel.ProtectedResourceMetadata{
		Resource:               baseURL,
		AuthorizationServers:   []string{baseURL},
		ScopesSupported:        append([]string(nil), oauthmodel.SupportedScopes...),
		BearerMethodsSupported: []string{"header"},
	}
}

// Register creates a new client. The returned registration is the only time the
// plaintext secret is available.
func (as *AuthorizationService) Register(ctx context.Context, req clients.RegistrationRequest) (*clients.Registration, error) {
	reg, err := as.clients.Register(ctx, req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrValidation) {
			return nil, oauthmodel.NewError(oauthmodel.ErrorInvalidClientMetadata, http.StatusBadRequest, err.Error(), err)
		}
		return nil, oauthmodel.ServerError(errors.Wrap(err, "[AuthorizationService.Register]"))
	}
	as.metrics.RecordOAuthEvent(metrics.EventClientRegistered)
	log.Info().Str("client_id", reg.ClientID).Str("client_name", reg.ClientName).Msg("OAuth client registered")
	return reg, nil
}

// Authorize validates the request against the registered client, issues a code
// and hands it to redirect.
func (as *AuthorizationService) Authorize(ctx context.Context, params *oauthmodel.AuthorizationParameters, redirect AuthorizationRedirect) error {
	if params.ResponseType != oauthmodel.CodeResponseType {
		return oauthmodel.UnsupportedResponseType(params.ResponseType)
	}

	client, err := as.clients.Lookup(ctx, params.ClientID)
	if err != nil {
		return oauthmodel.NewError(oauthmodel.ErrorInvalidClient, http.StatusBadRequest, "unknown client_id", err)
	}

	redirectURI, err := resolveRedirectURI(client, params.RedirectURI)
	if err != nil {
		return err
	}

	if err := validatePKCE(params.CodeChallenge, params.CodeChallengeMethod, as.requirePKCE); err != nil {
		return oauthmodel.InvalidRequest(err.Error())
	}
	method := params.CodeChallengeMethod
	if params.CodeChallenge != "" && method == "" {
		method = oauthmodel.CodeMethodTypePlain
	}

	scope := params.Scope
	if scope == "" {
		scope = client.Scope
	}

	code, err := as.codes.Issue(ctx, authcode.IssueRequest{
		ClientID:            client.ID,
		RedirectURI:         redirectURI,
		Scope:               scope,
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: string(method),
	})
	if err != nil {
		return oauthmodel.ServerError(errors.Wrap(err, "[AuthorizationService.Authorize] codes.Issue"))
	}
	as.metrics.RecordOAuthEvent(metrics.EventCodeIssued)

	redirect(redirectURI, code, params.State)
	return nil
}

// Token exchanges an authorization code for an access token. The code is
// consumed before the client is authenticated, so a failed exchange still burns it.
func (as *AuthorizationService) Token(ctx context.Context, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	resp, err := as.token(ctx, req)
	if err != nil {
		as.metrics.RecordOAuthEvent(metrics.EventTokenRejected)
		return nil, err
	}
	as.metrics.RecordOAuthEvent(metrics.EventTokenIssued)
	return resp, nil
}

func (as *AuthorizationService) token(ctx context.Context, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	if req.GrantType == "" {
		return nil, oauthmodel.InvalidRequest("grant_type is required")
	}
	if req.GrantType != oauthmodel.AuthorizationCodeGrant {
		return nil, oauthmodel.UnsupportedGrantType(req.GrantType)
	}
	if req.Code == "" {
		return nil, oauthmodel.InvalidRequest("code is required")
	}

	grant, err := as.codes.Redeem(ctx, req.Code)
	if err != nil {
		return nil, oauthmodel.InvalidGrant("authorization code is invalid, expired or already used", err)
	}

	client, err := as.clients.Authenticate(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, oauthmodel.InvalidClient(err)
	}

	if grant.ClientID != client.ID {
		return nil, oauthmodel.InvalidGrant("authorization code was issued to another client", nil)
	}
	if req.RedirectURI != "" && req.RedirectURI != grant.RedirectURI {
		return nil, oauthmodel.InvalidGrant("redirect_uri does not match the authorization request", nil)
	}
	if !checkCodeChallenge(grant.CodeChallenge, req.CodeVerifier, oauthmodel.CodeMethodType(grant.CodeChallengeMethod)) {
		return nil, oauthmodel.InvalidGrant("code_verifier does not match code_challenge", nil)
	}

	claims := as.codec.NewAccessClaims(client.ID, grant.Scope, as.accessTokenTTL)
	if req.Issuer != "" {
		claims.Issuer = req.Issuer
	}
	accessToken, err := as.codec.Encode(claims)
	if err != nil {
		return nil, oauthmodel.ServerError(errors.Wrap(err, "[AuthorizationService.Token] codec.Encode"))
	}

	log.Debug().Str("client_id", client.ID).Str("jti", claims.ID).Msg("Access token issued")
	return &oauthmodel.TokenResponse{
		AccessToken: accessToken,
		TokenType:   oauthmodel.TokenTypeBearer,
		ExpiresIn:   int(as.accessTokenTTL / time.Second),
		Scope:       grant.Scope,
	}, nil
}

// ClientInfo returns the public view of a registered client.
func (as *AuthorizationService) ClientInfo(ctx context.Context, clientID string) (*clients.PublicClient, error) {
	client, err := as.clients.Describe(ctx, clientID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, oauthmodel.NewError(oauthmodel.ErrorNotFound, http.StatusNotFound, "client not found", err)
		}
		return nil, oauthmodel.ServerError(errors.Wrap(err, "[AuthorizationService.ClientInfo]"))
	}
	return client, nil
}

// ValidateAccessToken verifies a bearer token. Errors wrap ErrInvalidToken or ErrTokenExpired.
func (as *AuthorizationService) ValidateAccessToken(raw string) (*token.Claims, error) {
	claims, err := as.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// PurgeExpiredCodes drops authorization codes that can no longer be redeemed.
func (as *AuthorizationService) PurgeExpiredCodes() int {
	return as.codes.Purge()
}

func resolveRedirectURI(client *clients.Client, requested string) (string, error) {
	if requested != "" {
		if !client.HasRedirectURI(requested) {
			return "", oauthmodel.NewError(oauthmodel.ErrorInvalidRequest, http.StatusBadRequest, "redirect_uri is not registered for this client", apperrors.ErrInvalidRedirectURI)
		}
		return requested, nil
	}
	if uri := client.DefaultRedirectURI(); uri != "" {
		return uri, nil
	}
	return "", oauthmodel.NewError(oauthmodel.ErrorInvalidRequest, http.StatusBadRequest, "redirect_uri is required", apperrors.ErrInvalidRedirectURI)
}

// RedirectURL appends code and state to redirectURI, keeping any query it already has.
func RedirectURL(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", errors.Wrap(err, "[RedirectURL] url.Parse")
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
