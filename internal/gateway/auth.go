package gateway

import (
	"errors"
	"net/http"

	"github.com/debsndprgs5/transcendence-game/internal/model"
)

// ErrUnauthenticated is returned when a request carries no usable identity
var ErrUnauthenticated = errors.New("missing player identity")

// IdentityProvider extracts the verified player identity from an
// incoming request. Token issuance and verification live in an
// upstream auth service; by the time a request reaches the gateway its
// identity is already established.
type IdentityProvider interface {
	Identify(r *http.Request) (model.PlayerID, string, error)
}

// Header names populated by the upstream auth proxy
const (
	HeaderPlayerID = "X-Player-ID"
	HeaderUsername = "X-Username"
)

// HeaderIdentity reads the identity headers set by the auth proxy
type HeaderIdentity struct{}

// NewHeaderIdentity creates a header-based identity provider
func NewHeaderIdentity() *HeaderIdentity {
	return &HeaderIdentity{}
}

// Identify returns the player id and username from the request headers.
// Query parameters are accepted as a fallback for browser websocket
// clients that cannot set headers.
func (*HeaderIdentity) Identify(r *http.Request) (model.PlayerID, string, error) {
	id := r.Header.Get(HeaderPlayerID)
	username := r.Header.Get(HeaderUsername)
	if id == "" {
		id = r.URL.Query().Get("playerId")
		username = r.URL.Query().Get("username")
	}
	if id == "" {
		return "", "", ErrUnauthenticated
	}
	if username == "" {
		username = id
	}
	return model.PlayerID(id), username, nil
}
