package menu_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jabber.at/hp"
	"jabber.at/hp/menu"
	"jabber.at/hp/urls"
)

const testMenu = `
items:
  - id: home
    title: Home
    route: core:home
  - id: blog
    title: Blog
    route: blog:home
  - id: projects
    title: Projects
    children:
      - id: hp
        title: Homepage
        route: blog:page
        args: [homepage]
      - id: sep
        divider: true
      - id: source
        title: Source
        path: https://git.jabber.at/hp
`

type upper struct{}

func (upper) T(msgid string, _ ...any) string { return strings.ToUpper(msgid) }

func testResolver(t *testing.T) *urls.Resolver {
	t.Helper()
	r := urls.NewResolver("")
	require.NoError(t, r.Register("core:home", "/"))
	require.NoError(t, r.Register("blog:home", "/blog/"))
	require.NoError(t, r.Register("blog:page", "/blog/{slug}/"))
	return r
}

func TestLoad(t *testing.T) {
	tree, err := menu.Load(strings.NewReader(testMenu))
	require.NoError(t, err)
	require.Len(t, tree.Items, 3)
	assert.Equal(t, "projects", tree.Items[2].ID)
	require.Len(t, tree.Items[2].Children, 3)
	assert.True(t, tree.Items[2].Children[1].Divider)
	assert.Equal(t, []string{"homepage"}, tree.Items[2].Children[0].Args)

	require.NoError(t, tree.CheckRoutes(testResolver(t)))
}

func TestLoadUnknownField(t *testing.T) {
	_, err := menu.Load(strings.NewReader("items:\n  - id: home\n    titel: Home\n    path: /\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		tree menu.Tree
		want error
	}{
		"duplicate": {
			tree: menu.Tree{Items: []menu.Item{
				{ID: "a", Path: "/a/"},
				{ID: "b", Children: []menu.Item{{ID: "a", Path: "/b/a/"}}},
			}},
			want: menu.ErrDuplicateID,
		},
		"missing id": {
			tree: menu.Tree{Items: []menu.Item{{Title: "Nameless", Path: "/"}}},
			want: menu.ErrMissingID,
		},
		"two targets": {
			tree: menu.Tree{Items: []menu.Item{{ID: "a", Path: "/a/", Route: "core:home"}}},
			want: menu.ErrTarget,
		},
		"no target": {
			tree: menu.Tree{Items: []menu.Item{{ID: "a", Title: "A"}}},
			want: menu.ErrTarget,
		},
		"too deep": {
			tree: menu.Tree{Items: []menu.Item{
				{ID: "1", Children: []menu.Item{
					{ID: "2", Children: []menu.Item{
						{ID: "3", Children: []menu.Item{
							{ID: "4", Path: "/deep/"},
						}},
					}},
				}},
			}},
			want: menu.ErrTooDeep,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, tt.tree.Validate(), tt.want)
		})
	}
}

func TestCheckRoutes(t *testing.T) {
	tree := menu.Tree{Items: []menu.Item{{ID: "login", Route: "account:login"}}}
	assert.ErrorIs(t, tree.CheckRoutes(testResolver(t)), menu.ErrUnresolvable)
}

func TestResolve(t *testing.T) {
	tree, err := menu.Load(strings.NewReader(testMenu))
	require.NoError(t, err)

	nodes, err := tree.Resolve(context.Background(), testResolver(t), upper{}, "/blog/homepage/")
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	home, blog, projects := nodes[0], nodes[1], nodes[2]
	assert.Equal(t, "HOME", home.Title)
	assert.Equal(t, "/", home.URL)
	assert.False(t, home.Active, "the root only matches itself")

	assert.Equal(t, "/blog/", blog.URL)
	assert.True(t, blog.Active, "parents of the current path are active")

	assert.False(t, projects.Active)
	assert.True(t, projects.OnActivePath)
	assert.Equal(t, 1, projects.Depth)
	require.Len(t, projects.Children, 3)
	assert.True(t, projects.Children[0].Active)
	assert.Equal(t, 2, projects.Children[0].Depth)
	assert.Equal(t, "", projects.Children[1].Title)
	assert.Equal(t, "https://git.jabber.at/hp", projects.Children[2].URL)
	assert.False(t, projects.Children[2].Active)

	nodes, err = tree.Resolve(context.Background(), testResolver(t), upper{}, "/")
	require.NoError(t, err)
	assert.True(t, nodes[0].Active)
	assert.False(t, nodes[1].Active)
	assert.False(t, nodes[2].OnActivePath)
}

type navSite struct {
	*hp.CachedSite
}

type navPage struct {
	menu.Nav
}

func (navPage) Key(_ context.Context) string { return "nav" }

func (navPage) ExecutedTemplate(_ context.Context) string { return "page" }

func (p navPage) Templates(ctx context.Context) []string {
	return append(p.Nav.Templates(ctx), "page.html.tmpl")
}

func TestNavRender(t *testing.T) {
	tree, err := menu.Load(strings.NewReader(testMenu))
	require.NoError(t, err)
	nodes, err := tree.Resolve(context.Background(), testResolver(t), upper{}, "/blog/homepage/")
	require.NoError(t, err)

	site := navSite{CachedSite: hp.NewCachedSite(fstest.MapFS{
		menu.NavTemplatePath: {Data: []byte(`{{ define "menu" }}{{ range . }}{{ template "menu-node" . }}{{ end }}{{ end }}` +
			`{{ define "menu-node" }}[{{ .Title }}{{ if .Active }}*{{ end }}{{ if .OnActivePath }}+{{ end }}{{ range .Children }}{{ template "menu-node" . }}{{ end }}]{{ end }}`)},
		"page.html.tmpl": {Data: []byte(`{{ define "page" }}{{ template "menu" .Page.Nodes }}{{ end }}`)},
	})}

	var out bytes.Buffer
	hp.Render(context.Background(), &out, site, navPage{Nav: menu.Nav{Nodes: nodes}})
	assert.Equal(t, "[HOME][BLOG*][PROJECTS+[HOMEPAGE*][][SOURCE]]", out.String())
}
