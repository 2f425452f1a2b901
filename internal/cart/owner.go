package cart

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Owner addresses a cart by exactly one of UserID or SessionID.
type Owner struct {
	UserID    string
	SessionID string
}

// UserOwner returns the owner key of an authenticated shopper.
func UserOwner(userID string) Owner {
	return Owner{UserID: strings.TrimSpace(userID)}
}

// GuestOwner returns the owner key of an anonymous session.
func GuestOwner(sessionID string) Owner {
	return Owner{SessionID: strings.TrimSpace(sessionID)}
}

// IsUser reports whether the owner is an authenticated shopper.
func (o Owner) IsUser() bool {
	return o.userKey() != ""
}

func (o Owner) userKey() string    { return strings.TrimSpace(o.UserID) }
func (o Owner) sessionKey() string { return strings.TrimSpace(o.SessionID) }

// Validate enforces the exactly-one-key rule.
func (o Owner) Validate() error {
	hasUser := o.userKey() != ""
	hasSession := o.sessionKey() != ""
	switch {
	case hasUser && hasSession:
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be either a user or a session, not both")
	case !hasUser && !hasSession:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner is required")
	}
	return nil
}

// String renders the owner for logs.
func (o Owner) String() string {
	if o.IsUser() {
		return "user:" + o.userKey()
	}
	return "session:" + o.sessionKey()
}
