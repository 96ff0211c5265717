package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureSign
	IssueFailureStore
)

// IssueResult carries the minted tokens or failure metadata.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	AccessToken  string
	RefreshToken string
}

// IssueDeps captures session issuance dependencies. RefreshTTL == 0 disables
// the refresh slot.
type IssueDeps struct {
	Issue        func(subject string, kind jwt.Kind, ttl time.Duration) (string, *jwt.Claims, error)
	Key          KeyFunc
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	StoreTimeout time.Duration
	SessionStore SessionWriter
}

type issuedSlot struct {
	kind  jwt.Kind
	token string
	ttl   time.Duration
}

// RunIssue mints a token per enabled kind and overwrites each session record with it.
// All tokens are signed before any record is written.
func RunIssue(ctx context.Context, subject string, deps IssueDeps) IssueResult {
	slots := []issuedSlot{{kind: jwt.KindAccess, ttl: deps.AccessTTL}}
	if deps.RefreshTTL > 0 {
		slots = append(slots, issuedSlot{kind: jwt.KindRefresh, ttl: deps.RefreshTTL})
	}

	for i := range slots {
		token, _, err := deps.Issue(subject, slots[i].kind, slots[i].ttl)
		if err != nil {
			return IssueResult{Failure: IssueFailureSign, Err: err}
		}
		slots[i].token = token
	}

	for _, slot := range slots {
		if err := writeSlot(ctx, deps, subject, slot); err != nil {
			return IssueResult{Failure: IssueFailureStore, Err: err}
		}
	}

	result := IssueResult{AccessToken: slots[0].token}
	if len(slots) > 1 {
		result.RefreshToken = slots[1].token
	}
	return result
}

func writeSlot(ctx context.Context, deps IssueDeps, subject string, slot issuedSlot) error {
	ctx, cancel := withStoreTimeout(ctx, deps.StoreTimeout)
	defer cancel()
	return deps.SessionStore.SetWithTTL(ctx, deps.Key(slot.kind, subject), slot.token, slot.ttl)
}
