package site

import (
	"context"

	"jabber.at/hp"
)

var (
	_ hp.Page = HomePage{}
	_ hp.Page = BlogIndexPage{}
	_ hp.Page = NotFoundPage{}
	_ hp.Page = ErrorPage{}
)

// HomePage is the landing page.
type HomePage struct {
	Layout Layout
}

func (HomePage) Templates(_ context.Context) []string {
	return []string{"pages/home.html.tmpl"}
}

func (p HomePage) UseComponents(_ context.Context) []hp.Component {
	return []hp.Component{p.Layout}
}

func (HomePage) Key(_ context.Context) string {
	return "home"
}

func (p HomePage) ExecutedTemplate(_ context.Context) string {
	return p.Layout.BaseTemplate()
}

// BlogIndexPage lists blog posts. Posts live elsewhere, so it only ever
// shows that there are none.
type BlogIndexPage struct {
	Layout Layout
}

func (BlogIndexPage) Templates(_ context.Context) []string {
	return []string{"pages/blog_index.html.tmpl"}
}

func (p BlogIndexPage) UseComponents(_ context.Context) []hp.Component {
	return []hp.Component{p.Layout}
}

func (BlogIndexPage) Key(_ context.Context) string {
	return "blog-index"
}

func (p BlogIndexPage) ExecutedTemplate(_ context.Context) string {
	return p.Layout.BaseTemplate()
}

// NotFoundPage is rendered for every URL without a page.
type NotFoundPage struct {
	Layout Layout
}

func (NotFoundPage) Templates(_ context.Context) []string {
	return []string{"pages/404.html.tmpl"}
}

func (p NotFoundPage) UseComponents(_ context.Context) []hp.Component {
	return []hp.Component{p.Layout}
}

func (NotFoundPage) Key(_ context.Context) string {
	return "not-found"
}

func (p NotFoundPage) ExecutedTemplate(_ context.Context) string {
	return p.Layout.BaseTemplate()
}

// ErrorPage is rendered when another page fails to render. It doesn't use
// the Layout, which may be what failed.
type ErrorPage struct {
	Lang string
	Dir  string
}

func (ErrorPage) Templates(_ context.Context) []string {
	return []string{"pages/500.html.tmpl"}
}

func (ErrorPage) Key(_ context.Context) string {
	return "server-error"
}

func (ErrorPage) ExecutedTemplate(_ context.Context) string {
	return "error"
}
