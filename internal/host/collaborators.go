package host

import (
	"context"
	"errors"
)

// ErrNoCollaborator is returned when an operation needs an external
// collaborator the host was not configured with.
var ErrNoCollaborator = errors.New("collaborator not configured")

// DocumentStore persists workbench documents.
type DocumentStore interface {
	SaveDocument(ctx context.Context, id string, data []byte) error
	LoadDocument(ctx context.Context, id string) ([]byte, error)
}

// UserInfo identifies a resolved user.
type UserInfo struct {
	ID    string
	Name  string
	OrgID string
}

// AuthResolver resolves an access token to a user.
type AuthResolver interface {
	ResolveUser(ctx context.Context, token string) (UserInfo, error)
}

// ObjectStore uploads produced artifacts (exports, previews) and returns
// their addressable location.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// OrgNotifier delivers notifications to an organization's members.
type OrgNotifier interface {
	Notify(ctx context.Context, orgID, message string) error
}

// Collaborators bundles the optional external services. Any field may be
// nil; the corresponding host operations then fail with ErrNoCollaborator.
type Collaborators struct {
	Documents DocumentStore
	Auth      AuthResolver
	Objects   ObjectStore
	Notifier  OrgNotifier
}
