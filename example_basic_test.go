package hp_test

import (
	"context"
	"log/slog"
	"os"

	"jabber.at/hp"
)

type BasicSite struct {
	// anonymously embedding a *CachedSite makes BasicSite a Site
	// implementation
	*hp.CachedSite

	// the name shown in every page's title
	Name string
}

type BasicHomePage struct {
	Layout BasicLayout
}

func (BasicHomePage) Templates(_ context.Context) []string {
	return []string{"home.html.tmpl"}
}

func (h BasicHomePage) UseComponents(_ context.Context) []hp.Component {
	return []hp.Component{
		h.Layout,
	}
}

func (BasicHomePage) Key(_ context.Context) string {
	return "home.html.tmpl"
}

func (h BasicHomePage) ExecutedTemplate(_ context.Context) string {
	return h.Layout.BaseTemplate()
}

func (BasicHomePage) EmbedCSS(_ context.Context) []hp.CSSInline {
	return []hp.CSSInline{
		{TemplatePath: "home.css.tmpl"},
	}
}

type BasicLayout struct{}

func (b BasicLayout) Templates(_ context.Context) []string {
	return []string{b.BaseTemplate()}
}

func (BasicLayout) BaseTemplate() string {
	return "base.html.tmpl"
}

func ExampleRender_basic() {
	// normally you'd use embed.FS or os.DirFS for this
	templates := templateFS(map[string]string{
		"home.html.tmpl": `{{ define "content" }}Welcome to {{ .Site.Name }}.{{ end }}`,
		"base.html.tmpl": `
<!doctype html>
<html lang="en">
	<head>
		<title>{{ .Site.Name }}</title>
		{{ .CSS }}
	</head>
	<body>
		{{ block "content" . }}{{ end }}
	</body>
</html>`,
		"home.css.tmpl": "body { margin: 0; }",
	})

	// usually the context comes from the request
	ctx := hp.LoggingContext(context.Background(), slog.Default())

	site := BasicSite{
		CachedSite: hp.NewCachedSite(templates),
		Name:       "jabber.at",
	}
	page := BasicHomePage{Layout: BasicLayout{}}
	hp.Render(ctx, os.Stdout, site, page)

	//Output:
	// <!doctype html>
	// <html lang="en">
	// 	<head>
	// 		<title>jabber.at</title>
	// 		<style>
	// body { margin: 0; }
	// </style>
	//
	// 	</head>
	// 	<body>
	// 		Welcome to jabber.at.
	// 	</body>
	// </html>
}
