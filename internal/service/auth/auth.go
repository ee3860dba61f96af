// Package service_auth issues participant tokens for identities on the
// allowed email domain. The gate is the only authorization in the
// system; everything past it runs on the trusted-participant model.
package service_auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Token = string

var (
	ErrInternal         = errors.New("internal error")
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	ErrInvalidIdentity  = errors.New("invalid identity claims")
	ErrUnknownToken     = errors.New("unknown token")
)

// Identity is the claim set arriving from the external sign-in
// provider, resolved to a display name the room can show.
type Identity struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	IdentityID string `json:"identity_id"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

type SessionCache interface {
	Set(key string, value string, ttl time.Duration) error
	Get(key string) (string, error)
}

type Service struct {
	allowedDomain string
	sessionCache  SessionCache
	ttl           time.Duration
	logger        *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(allowedDomain string, sessionCache SessionCache, ttl time.Duration, opts ...ServiceOption) *Service {
	s := &Service{
		allowedDomain: allowedDomain,
		sessionCache:  sessionCache,
		ttl:           ttl,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login validates the claims against the allowed domain and returns a
// session token. Display name falls back to the email local part, then
// to Anonymous, so a room never shows an empty name.
func (s *Service) Login(identity Identity) (Token, error) {
	if identity.IdentityID == "" || identity.Email == "" {
		return "", ErrInvalidIdentity
	}

	_, domain, found := strings.Cut(identity.Email, "@")
	if !found || !strings.EqualFold(domain, s.allowedDomain) {
		s.logger.Warn("sign-in rejected", "email_domain", domain)
		return "", ErrDomainNotAllowed
	}

	identity.Name = resolveName(identity)

	payload, err := json.Marshal(identity)
	if err != nil {
		return "", errors.Join(ErrInternal, err)
	}

	token := uuid.NewString()
	if err := s.sessionCache.Set(token, string(payload), s.ttl); err != nil {
		return "", errors.Join(ErrInternal, err)
	}

	s.logger.Info("sign-in accepted", "identity_id", identity.IdentityID, "name", identity.Name)
	return token, nil
}

// Resolve returns the identity behind a live token.
func (s *Service) Resolve(token Token) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnknownToken
	}

	payload, err := s.sessionCache.Get(token)
	if err != nil {
		return Identity{}, errors.Join(ErrInternal, err)
	}
	if payload == "" {
		return Identity{}, ErrUnknownToken
	}

	var identity Identity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		return Identity{}, errors.Join(ErrInternal, err)
	}
	return identity, nil
}

func resolveName(identity Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	if local, _, found := strings.Cut(identity.Email, "@"); found && local != "" {
		return local
	}
	return "Anonymous"
}
