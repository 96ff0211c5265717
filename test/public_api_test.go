package test

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/middleware"
)

// Compile-time guard on the exported surface consumers build against.
var (
	_ = goSession.New
	_ = goSession.DefaultConfig

	_ *goSession.Engine
	_ goSession.Config
	_ goSession.AuthResult
	_ goSession.LoginResult
	_ goSession.RegisterRequest
	_ goSession.Profile
	_ goSession.AuditSink

	_ goSession.CredentialStore = (*credential.Store)(nil)
	_ goSession.CredentialPinger = (*credential.Store)(nil)

	_ error = goSession.ErrMalformed
	_ error = goSession.ErrSignatureInvalid
	_ error = goSession.ErrExpired
	_ error = goSession.ErrSessionRevoked
	_ error = goSession.ErrStoreUnavailable
	_ error = goSession.ErrInvalidCredentials
	_ error = goSession.ErrLoginRateLimited
	_ error = goSession.ErrAccountExists

	_ func(*goSession.Engine, ...middleware.Option) func(http.Handler) http.Handler = middleware.Guard

	_ func(*goSession.Engine, context.Context, string, string) (*goSession.LoginResult, error) = (*goSession.Engine).Login
	_ func(*goSession.Engine, context.Context, string) (string, error)                         = (*goSession.Engine).Refresh
	_ func(*goSession.Engine, context.Context, string) (*goSession.AuthResult, error)          = (*goSession.Engine).ValidateAccess
	_ func(*goSession.Engine, context.Context, string, goSession.LogoutScope) error             = (*goSession.Engine).Logout
)
