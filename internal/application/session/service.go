package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimatrix/site/internal/application"
	domsession "github.com/aimatrix/site/internal/domain/session"
	"github.com/aimatrix/site/internal/observability"
)

const (
	sessionService  = "session-client"
	useCaseLogin    = "session.login"
	useCaseRegister = "session.register"
	loginSpanName   = "Login"
	registerSpan    = "Register"
)

// AuthAPI is the outbound port to the auth backend.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domsession.User, error)
	Register(ctx context.Context, name, email, password string) error
}

// Service owns the client-side session: created on login, cleared on logout,
// and treated as absent once expired.
type Service struct {
	auth   AuthAPI
	store  domsession.Store
	ttl    time.Duration
	now    func() time.Time
	login  application.Instruments
	signup application.Instruments
}

func NewService(auth AuthAPI, store domsession.Store, ttl time.Duration, obs observability.Observability) *Service {
	return &Service{
		auth:   auth,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		login:  application.NewInstruments(obs, sessionService, useCaseLogin),
		signup: application.NewInstruments(obs, sessionService, useCaseRegister),
	}
}

// Login authenticates and stores a fresh session for the returned user.
func (s *Service) Login(ctx context.Context, email, password string) (_ domsession.Session, err error) {
	ctx, run := s.login.Start(ctx, loginSpanName)
	defer func() { run.End(err) }()
	run.With(observability.F("email", email))

	u, err := s.auth.Login(ctx, email, password)
	if err != nil {
		run.FailWith(err, "AUTH_REJECTED")
		return domsession.Session{}, fmt.Errorf("session: login: %w", err)
	}
	sess, err := domsession.New(u, s.now(), s.ttl)
	if err != nil {
		run.Fail(observability.OutcomeError, "INVALID_USER")
		return domsession.Session{}, err
	}
	if err = s.store.Save(ctx, sess); err != nil {
		run.Fail(observability.OutcomeError, "STORE_FAILED")
		return domsession.Session{}, fmt.Errorf("session: save: %w", err)
	}
	return sess, nil
}

// Register proxies account creation. It does not log the user in.
func (s *Service) Register(ctx context.Context, name, email, password string) (err error) {
	ctx, run := s.signup.Start(ctx, registerSpan)
	defer func() { run.End(err) }()
	run.With(observability.F("email", email))

	if err = s.auth.Register(ctx, name, email, password); err != nil {
		run.FailWith(err, "AUTH_REJECTED")
		return fmt.Errorf("session: register: %w", err)
	}
	return nil
}

// Current returns the stored session, or ErrNoSession when there is none or it expired.
// An expired session is cleared.
func (s *Service) Current(ctx context.Context) (domsession.Session, error) {
	sess, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, domsession.ErrExpired):
		_ = s.store.Clear(ctx)
		return domsession.Session{}, domsession.ErrNoSession
	case err != nil:
		return domsession.Session{}, err
	}
	if sess.Expired(s.now()) {
		_ = s.store.Clear(ctx)
		return domsession.Session{}, domsession.ErrNoSession
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}
