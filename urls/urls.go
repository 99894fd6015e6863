// Package urls maps route names like "blog:home" or "account:login" to URL
// paths, so templates and handlers never hardcode a path.
//
// Names are namespaced with a colon. Patterns use chi's syntax, and
// parameters are filled in positionally with Reverse or by name with
// ReverseMap. Routes registered through Mount are added to a chi.Router and
// the Resolver in one step.
package urls

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

var (
	// ErrNoReverseMatch is returned when no route is registered under
	// the requested name.
	ErrNoReverseMatch = errors.New("no route registered with that name")

	// ErrArgCount is returned when the number of arguments doesn't match
	// the number of parameters in the route's pattern.
	ErrArgCount = errors.New("wrong number of arguments for route")

	// ErrMissingArg is returned by ReverseMap when a parameter of the
	// route's pattern has no value.
	ErrMissingArg = errors.New("missing argument for route")

	// ErrInvalidName is returned when registering a route under a name
	// that isn't of the form "namespace:name".
	ErrInvalidName = errors.New("route names must be of the form namespace:name")

	// ErrDuplicateName is returned when registering a second route under
	// a name that's already taken.
	ErrDuplicateName = errors.New("route name already registered")
)

// paramPattern matches chi URL parameters, with or without a regular
// expression: {slug} or {id:[0-9]+}.
var paramPattern = regexp.MustCompile(`\{([^{}:]+)(?::[^{}]*)?\}`)

type route struct {
	pattern string
	params  []string
}

// Resolver holds the named routes of the site. The zero value is not usable,
// use NewResolver.
//
// It can safely be used by multiple goroutines.
type Resolver struct {
	mu     sync.RWMutex
	routes map[string]route
	prefix string
}

// NewResolver returns an empty Resolver. Every reversed path is prefixed with
// prefix, which is useful when the site is served below the root of a
// domain.
func NewResolver(prefix string) *Resolver {
	return &Resolver{
		routes: map[string]route{},
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// Register adds the route pattern under name.
func (r *Resolver) Register(name, pattern string) error {
	namespace, short, ok := strings.Cut(name, ":")
	if !ok || namespace == "" || short == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	var params []string
	for _, match := range paramPattern.FindAllStringSubmatch(pattern, -1) {
		params = append(params, match[1])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.routes[name]; ok {
		return fmt.Errorf("%w: %q is %q", ErrDuplicateName, name, existing.pattern)
	}
	r.routes[name] = route{pattern: pattern, params: params}
	return nil
}

// Reverse returns the path of the route registered under name, with its
// parameters replaced by args in order. Arguments are escaped as path
// segments.
func (r *Resolver) Reverse(name string, args ...any) (string, error) {
	rt, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	if len(args) != len(rt.params) {
		return "", fmt.Errorf("%w %q: expected %d, got %d", ErrArgCount, name, len(rt.params), len(args))
	}
	pos := 0
	path := paramPattern.ReplaceAllStringFunc(rt.pattern, func(string) string {
		arg := url.PathEscape(fmt.Sprint(args[pos]))
		pos++
		return arg
	})
	return r.prefix + path, nil
}

// ReverseMap returns the path of the route registered under name, with its
// parameters replaced by the values of args under the same keys.
func (r *Resolver) ReverseMap(name string, args map[string]any) (string, error) {
	rt, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	for _, param := range rt.params {
		if _, ok := args[param]; !ok {
			return "", fmt.Errorf("%w %q: %s", ErrMissingArg, name, param)
		}
	}
	// Every parameter is present, so a mismatch means unknown keys.
	if len(args) != len(rt.params) {
		return "", fmt.Errorf("%w %q: expected %d, got %d", ErrArgCount, name, len(rt.params), len(args))
	}
	path := paramPattern.ReplaceAllStringFunc(rt.pattern, func(match string) string {
		param := paramPattern.FindStringSubmatch(match)[1]
		return url.PathEscape(fmt.Sprint(args[param]))
	})
	return r.prefix + path, nil
}

// MustReverse is like Reverse, but panics if the route can't be reversed.
// It's meant for routes that are known to exist at startup.
func (r *Resolver) MustReverse(name string, args ...any) string {
	path, err := r.Reverse(name, args...)
	if err != nil {
		panic(err)
	}
	return path
}

// Names returns the names of all registered routes, sorted.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) lookup(name string) (route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[name]
	if !ok {
		return route{}, fmt.Errorf("%w: %q", ErrNoReverseMatch, name)
	}
	return rt, nil
}

// FuncMap returns the template functions for reversing routes: url takes a
// route name and positional arguments, urlMap a route name and alternating
// keys and values.
func (r *Resolver) FuncMap() template.FuncMap {
	return template.FuncMap{
		"url": r.Reverse,
		"urlMap": func(name string, pairs ...any) (string, error) {
			if len(pairs)%2 != 0 {
				return "", fmt.Errorf("%w %q: urlMap needs key/value pairs", ErrArgCount, name)
			}
			args := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				args[fmt.Sprint(pairs[i])] = pairs[i+1]
			}
			return r.ReverseMap(name, args)
		},
	}
}

// Mount registers handler for method and pattern on router, and pattern
// under name on r, so a route can't exist without its name.
func (r *Resolver) Mount(router chi.Router, method, name, pattern string, handler http.Handler) error {
	if err := r.Register(name, pattern); err != nil {
		return err
	}
	router.Method(method, pattern, handler)
	return nil
}
