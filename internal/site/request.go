package site

import (
	"context"
	"net/http"

	"jabber.at/hp/i18n"
)

// User is a visitor who signed in.
type User struct {
	Name string
}

type userKey struct{}

// WithUser returns a copy of ctx carrying the signed-in user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the signed-in user attached to ctx, or nil for
// anonymous visitors.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}

// Request is the state of a single request that every page needs.
type Request struct {
	Translator *i18n.Translator

	// Path is the path of the requested URL, used to highlight the
	// current menu item and build the canonical URL.
	Path string

	// Next is where the language switcher sends the visitor back to.
	Next string

	// User is nil for anonymous visitors.
	User *User
}

// NewRequest collects the Request state of r. The translator and user are
// taken from its context.
func NewRequest(r *http.Request) Request {
	return Request{
		Translator: i18n.FromContext(r.Context()),
		Path:       r.URL.Path,
		Next:       r.URL.RequestURI(),
		User:       UserFromContext(r.Context()),
	}
}
