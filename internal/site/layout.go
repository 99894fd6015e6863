package site

import (
	"context"

	"jabber.at/hp"
	"jabber.at/hp/bootstrap"
	"jabber.at/hp/menu"
)

// Layout is the shell shared by every page: the head, the navbar and the
// footer. Pages fill in its "content" block.
type Layout struct {
	// Title is the translated title of the page. The site name is added
	// to it.
	Title string

	// Description replaces the site's description in the page's
	// metadata, if set.
	Description string

	Request Request
	Nav     menu.Nav
	Assets  hp.Component

	// LanguageForm lays out the language switcher in the navbar.
	LanguageForm bootstrap.Form
}

// languageForm is the layout of the language switcher. Its button is only
// shown when scripts are disabled, since the select submits itself.
func languageForm() bootstrap.Form {
	return bootstrap.NewForm(bootstrap.Button{
		Name:    "submit",
		Text:    "Switch",
		Variant: "outline-secondary",
		Size:    "sm",
	})
}

// BaseTemplate is the template pages execute.
func (Layout) BaseTemplate() string {
	return "base"
}

func (Layout) Templates(_ context.Context) []string {
	return []string{"base.html.tmpl"}
}

func (l Layout) UseComponents(_ context.Context) []hp.Component {
	components := []hp.Component{Navbar{Nav: l.Nav}, Footer{}}
	if l.Assets != nil {
		components = append(components, l.Assets)
	}
	return components
}

// Bootstrap is loaded from its CDN, pinned by integrity.
const (
	BootstrapCSS          = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"
	BootstrapCSSIntegrity = "sha384-QWTKZyjpPEjISv5WaRU9OFeRpok6YctnYmDr5pNlyT2bRjXh0JMhjY6hW+ALEwIH"
	BootstrapJS           = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"
	BootstrapJSIntegrity  = "sha384-YvpcrYf0tY3lHB60NNkmXc5s9fDVZLESaAA55NDzOxhy9GkcIdslK1eN7N6jIeHz"
)

// LinkCSS links bootstrap ahead of every other stylesheet, so the site's
// own styles can override it.
func (Layout) LinkCSS(_ context.Context) []hp.CSSLink {
	return []hp.CSSLink{{
		Href:        BootstrapCSS,
		Rel:         "stylesheet",
		Integrity:   BootstrapCSSIntegrity,
		CrossOrigin: "anonymous",
		CSSLinkRelationCalculator: func(context.Context, hp.CSSLink) hp.ResourceRelationship {
			return hp.ResourceRelationshipBefore
		},
		CSSInlineRelationCalculator: func(context.Context, hp.CSSInline) hp.ResourceRelationship {
			return hp.ResourceRelationshipBefore
		},
	}}
}

// LinkJS links bootstrap's scripts in the footer, ahead of the site's own.
func (Layout) LinkJS(_ context.Context) []hp.JSLink {
	return []hp.JSLink{{
		Src:           BootstrapJS,
		Integrity:     BootstrapJSIntegrity,
		CrossOrigin:   "anonymous",
		PlaceInFooter: true,
		JSLinkRelationCalculator: func(_ context.Context, other hp.JSLink) hp.ResourceRelationship {
			if other.PlaceInFooter {
				return hp.ResourceRelationshipBefore
			}
			return hp.ResourceRelationshipNeutral
		},
	}}
}

// EmbedJS picks the color mode before the page is painted.
func (Layout) EmbedJS(_ context.Context) []hp.JSInline {
	return []hp.JSInline{
		{TemplatePath: "js/color-mode.js"},
	}
}

// Navbar is the navigation bar at the top of every page, holding the menu,
// the account links and the language switcher.
type Navbar struct {
	Nav menu.Nav
}

func (Navbar) Templates(_ context.Context) []string {
	return []string{"navbar.html.tmpl"}
}

func (n Navbar) UseComponents(_ context.Context) []hp.Component {
	return []hp.Component{n.Nav}
}

// Footer is the footer of every page.
type Footer struct{}

func (Footer) Templates(_ context.Context) []string {
	return []string{"footer.html.tmpl"}
}
