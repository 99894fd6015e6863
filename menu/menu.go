// Package menu describes the site's navigation as a tree of items, loaded
// from YAML, and resolves it into nodes ready to be rendered for a request.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jabber.at/hp"
)

// MaxDepth is the deepest level of nesting a menu may have. Top-level items
// are at depth 1.
const MaxDepth = 3

var (
	// ErrDuplicateID is returned when two items share an ID.
	ErrDuplicateID = errors.New("duplicate menu item ID")

	// ErrMissingID is returned when an item has no ID.
	ErrMissingID = errors.New("menu item has no ID")

	// ErrTarget is returned when an item doesn't have exactly one of a path
	// or a route, and is neither a divider nor a parent of other items.
	ErrTarget = errors.New("menu item needs exactly one of path or route")

	// ErrTooDeep is returned when items are nested deeper than MaxDepth.
	ErrTooDeep = errors.New("menu is nested too deep")

	// ErrUnresolvable is returned when an item's route can't be reversed.
	ErrUnresolvable = errors.New("menu item route can't be resolved")
)

// Item is a single entry of the menu, as written in the menu file.
type Item struct {
	// ID identifies the item, and must be unique in the Tree.
	ID string `yaml:"id"`

	// Title is the untranslated title of the item.
	Title string `yaml:"title"`

	// Path is a literal URL for the item.
	Path string `yaml:"path,omitempty"`

	// Route is the name of a route to reverse for the item's URL, with
	// Args as its parameters.
	Route string   `yaml:"route,omitempty"`
	Args  []string `yaml:"args,omitempty"`

	// Icon is an optional icon class.
	Icon string `yaml:"icon,omitempty"`

	// Divider marks an item that only separates its siblings.
	Divider bool `yaml:"divider,omitempty"`

	Children []Item `yaml:"children,omitempty"`
}

// Tree is the whole menu.
type Tree struct {
	Items []Item `yaml:"items"`
}

// Reverser turns route names into paths.
type Reverser interface {
	Reverse(name string, args ...any) (string, error)
}

// Translator translates item titles.
type Translator interface {
	T(msgid string, args ...any) string
}

// Load reads a Tree from YAML and validates it.
func Load(r io.Reader) (*Tree, error) {
	var tree Tree
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&tree)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error decoding menu: %w", err)
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return &tree, nil
}

// LoadFile is Load for the file at path.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening menu file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that IDs are unique, that every item has a target, and
// that the tree isn't nested deeper than MaxDepth.
func (t *Tree) Validate() error {
	return validate(t.Items, 1, map[string]struct{}{})
}

func validate(items []Item, depth int, seen map[string]struct{}) error {
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: %q", ErrMissingID, item.Title)
		}
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, item.ID)
		}
		seen[item.ID] = struct{}{}
		if depth > MaxDepth {
			return fmt.Errorf("%w: %q is at depth %d", ErrTooDeep, item.ID, depth)
		}
		hasPath, hasRoute := item.Path != "", item.Route != ""
		switch {
		case hasPath && hasRoute:
			return fmt.Errorf("%w: %q has both", ErrTarget, item.ID)
		case !hasPath && !hasRoute && !item.Divider && len(item.Children) < 1:
			return fmt.Errorf("%w: %q has neither", ErrTarget, item.ID)
		}
		if err := validate(item.Children, depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}

// CheckRoutes makes sure every route in the Tree can be reversed by r, so
// broken links are found at startup instead of on the first request.
func (t *Tree) CheckRoutes(r Reverser) error {
	return checkRoutes(t.Items, r)
}

func checkRoutes(items []Item, r Reverser) error {
	for _, item := range items {
		if item.Route != "" {
			if _, err := r.Reverse(item.Route, stringArgs(item.Args)...); err != nil {
				return fmt.Errorf("%w: %q: %w", ErrUnresolvable, item.ID, err)
			}
		}
		if err := checkRoutes(item.Children, r); err != nil {
			return err
		}
	}
	return nil
}

// Node is an Item resolved for a single request.
type Node struct {
	ID      string
	Title   string
	URL     string
	Icon    string
	Divider bool

	// Active is set when the current path is the node's URL, or below
	// it. The root URL only matches itself.
	Active bool

	// OnActivePath is set when one of the node's descendants is active.
	OnActivePath bool

	// Depth is 1 for top-level nodes.
	Depth int

	Children []Node
}

// HasChildren reports whether the node has children, for templates.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Resolve translates and reverses every item of the Tree, and marks the
// nodes leading to currentPath.
func (t *Tree) Resolve(ctx context.Context, r Reverser, tr Translator, currentPath string) ([]Node, error) {
	nodes, _, err := resolve(ctx, t.Items, r, tr, currentPath, 1)
	return nodes, err
}

func resolve(ctx context.Context, items []Item, r Reverser, tr Translator, currentPath string, depth int) ([]Node, bool, error) {
	nodes := make([]Node, 0, len(items))
	var anyActive bool
	for _, item := range items {
		node := Node{
			ID:      item.ID,
			Icon:    item.Icon,
			Divider: item.Divider,
			Depth:   depth,
		}
		if item.Title != "" {
			node.Title = tr.T(item.Title)
		}
		switch {
		case item.Path != "":
			node.URL = item.Path
		case item.Route != "":
			url, err := r.Reverse(item.Route, stringArgs(item.Args)...)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %q: %w", ErrUnresolvable, item.ID, err)
			}
			node.URL = url
		}
		children, childActive, err := resolve(ctx, item.Children, r, tr, currentPath, depth+1)
		if err != nil {
			return nil, false, err
		}
		node.Children = children
		node.OnActivePath = childActive
		node.Active = isActive(node.URL, currentPath)
		if node.Active || node.OnActivePath {
			anyActive = true
		}
		nodes = append(nodes, node)
	}
	hp.Logger(ctx).DebugContext(ctx, "resolved menu level", "depth", depth, "items", len(nodes), "active", anyActive)
	return nodes, anyActive, nil
}

func isActive(url, currentPath string) bool {
	if url == "" || currentPath == "" {
		return false
	}
	if url == currentPath {
		return true
	}
	// only site-local URLs can contain the current path
	if !strings.HasPrefix(url, "/") || url == "/" {
		return false
	}
	prefix := url
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(currentPath, prefix)
}

func stringArgs(args []string) []any {
	res := make([]any, 0, len(args))
	for _, arg := range args {
		res = append(res, arg)
	}
	return res
}
