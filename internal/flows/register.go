package flows

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NormalizeEmail trims and lowercases an email so lookups and uniqueness are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest is the flow-local registration input.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisteredUser is the flow-local view of a created account.
type RegisteredUser struct {
	UserID    string
	Name      string
	Email     string
	CreatedAt time.Time
}

// RegisterFailureKind classifies registration failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalid
	RegisterFailureDuplicate
	RegisterFailureHash
	RegisterFailureCreate
)

// RegisterResult carries the created user or failure metadata. Reason names the
// offending field for invalid input.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	Reason  string
	User    RegisteredUser
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	MinPasswordBytes int
	HashPassword     func(plain string) (string, error)
	CreateUser       func(ctx context.Context, name, email, passwordHash string) (RegisteredUser, error)
	AccountExists    error
}

// RunRegister validates input, hashes the password and creates the account.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) RegisterResult {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)

	switch {
	case name == "" || email == "" || req.Password == "":
		return RegisterResult{Failure: RegisterFailureInvalid, Reason: "missing_fields"}
	case !emailPattern.MatchString(email):
		return RegisterResult{Failure: RegisterFailureInvalid, Reason: "invalid_email"}
	case len(req.Password) < deps.MinPasswordBytes:
		return RegisterResult{Failure: RegisterFailureInvalid, Reason: "password_too_short"}
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err, Reason: "hash_failed"}
	}

	user, err := deps.CreateUser(ctx, name, email, hash)
	if err != nil {
		if deps.AccountExists != nil && errors.Is(err, deps.AccountExists) {
			return RegisterResult{Failure: RegisterFailureDuplicate, Err: err, Reason: "duplicate_email"}
		}
		return RegisterResult{Failure: RegisterFailureCreate, Err: err, Reason: "create_failed"}
	}

	return RegisterResult{User: user}
}
