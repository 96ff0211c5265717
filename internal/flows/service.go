package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Verify != nil && s.deps.Validate.SessionStore != nil
}

func (s Service) Issue(ctx context.Context, subject string) IssueResult {
	return RunIssue(ctx, subject, s.deps.Issue)
}

func (s Service) Validate(ctx context.Context, token string, kind jwt.Kind) ValidateResult {
	return RunValidate(ctx, token, kind, s.deps.Validate)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, subject string, kinds []jwt.Kind) error {
	return RunLogout(ctx, subject, kinds, s.deps.Logout)
}

func (s Service) Login(ctx context.Context, email, password, ip string) LoginResult {
	return RunLogin(ctx, email, password, ip, s.deps.Login)
}

func (s Service) Register(ctx context.Context, req RegisterRequest) RegisterResult {
	return RunRegister(ctx, req, s.deps.Register)
}

func (s Service) SessionInfo(ctx context.Context, subject string) ([]SessionState, error) {
	return RunSessionInfo(ctx, subject, s.deps.Introspection)
}

func (s Service) Health(ctx context.Context) (bool, time.Duration) {
	return RunHealth(ctx, s.deps.Introspection)
}
