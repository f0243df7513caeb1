package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/forms"
)

// ErrMissingToken means the backend answered a login without a token.
var ErrMissingToken = errors.New("auth: login response has no token")

// API is the subset of the HTTP client the service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Service runs the account flows against the backend and keeps the local
// session in step.
type Service struct {
	api     API
	session *Session
	notify  apiclient.AuthStateNotifier
	logger  *slog.Logger
}

// NewService wires the auth service.
func NewService(api API, session *Session, notify apiclient.AuthStateNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, session: session, notify: notify, logger: logger}
}

// Login signs in. A non-empty otp completes a step-up challenge. When the
// backend asks for an OTP the result has OTPRequired set and nothing is stored.
func (s *Service) Login(ctx context.Context, form forms.Login, otp string) (LoginResult, error) {
	if err := forms.Validate(form); err != nil {
		return LoginResult{}, err
	}
	if otp != "" {
		if err := forms.Validate(forms.OTP{Code: otp}); err != nil {
			return LoginResult{}, err
		}
	}

	var res LoginResult
	req := loginRequest{Email: form.Email, Password: form.Password, OTP: otp}
	if err := s.api.Post(ctx, "/login", req, &res); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if res.OTPRequired {
		return res, nil
	}
	return res, s.establish(ctx, res)
}

// Register creates the account and signs in.
func (s *Service) Register(ctx context.Context, form forms.Signup) (LoginResult, error) {
	if err := forms.Validate(form); err != nil {
		return LoginResult{}, err
	}
	var res LoginResult
	if err := s.api.Post(ctx, "/register", form, &res); err != nil {
		return LoginResult{}, fmt.Errorf("register: %w", err)
	}
	return res, s.establish(ctx, res)
}

// Logout tells the backend and always clears the local session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Post(ctx, "/logout", struct{}{}, nil); err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}
	err := s.session.Clear(ctx)
	s.broadcast(ctx, false)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Profile fetches the current user and refreshes the stored copy.
func (s *Service) Profile(ctx context.Context) (User, error) {
	var u User
	if err := s.api.Get(ctx, "/profile", &u); err != nil {
		return User{}, fmt.Errorf("profile: %w", err)
	}
	if err := s.session.SaveUser(ctx, u); err != nil {
		s.logger.Warn("store profile", "error", err)
	}
	return u, nil
}

// UpdateProfile saves name and phone.
func (s *Service) UpdateProfile(ctx context.Context, form forms.Profile) (User, error) {
	if err := forms.Validate(form); err != nil {
		return User{}, err
	}
	var u User
	if err := s.api.Post(ctx, "/update", form, &u); err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := s.session.SaveUser(ctx, u); err != nil {
		s.logger.Warn("store profile", "error", err)
	}
	return u, nil
}

// ForgotPassword requests a reset code by email.
func (s *Service) ForgotPassword(ctx context.Context, form forms.ForgotPassword) error {
	if err := forms.Validate(form); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/password/forgot", form, nil); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using the emailed code.
func (s *Service) ResetPassword(ctx context.Context, form forms.ResetPassword) error {
	if err := forms.Validate(form); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/password/reset", form, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// CurrentUser returns the stored user without a network call.
func (s *Service) CurrentUser(ctx context.Context) (User, error) {
	return s.session.User(ctx)
}

// Authenticated reports whether a usable session is stored.
func (s *Service) Authenticated(ctx context.Context) bool {
	return s.session.Authenticated(ctx)
}

func (s *Service) establish(ctx context.Context, res LoginResult) error {
	if res.Token == "" || res.User == nil {
		return ErrMissingToken
	}
	if err := s.session.Save(ctx, res.Token, *res.User); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.broadcast(ctx, true)
	return nil
}

func (s *Service) broadcast(ctx context.Context, authenticated bool) {
	if s.notify != nil {
		s.notify.AuthStateChanged(ctx, authenticated)
	}
}
