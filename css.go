package hp

import (
	"context"
	"html/template"
	"strings"
)

// CSSEmbedder is an interface that Components can fulfill to include some CSS
// that should be embedded directly into the rendered HTML, inside <style>
// elements.
type CSSEmbedder interface {
	// EmbedCSS returns the CSS blocks that should be embedded directly in
	// the output HTML.
	EmbedCSS(context.Context) []CSSInline
}

// CSSLinker is an interface that Components can fulfill to include some CSS
// that should be loaded through a <link> element.
type CSSLinker interface {
	// LinkCSS returns the stylesheets that should be linked to from the
	// output HTML.
	LinkCSS(context.Context) []CSSLink
}

// CSSLink is a stylesheet loaded through a <link> element.
type CSSLink struct {
	// Href is the URL of the stylesheet. Two CSSLinks with the same Href
	// are considered the same resource and only rendered once.
	Href string

	// Rel, Type, Media, Integrity and CrossOrigin set the attributes of
	// the same names; empty values are left out.
	Rel         string
	Type        string
	Media       string
	Integrity   string
	CrossOrigin string

	// CSSLinkRelationCalculator, when set, is called with every other
	// CSSLink on the page to decide which has to be rendered first.
	CSSLinkRelationCalculator func(context.Context, CSSLink) ResourceRelationship

	// CSSInlineRelationCalculator, when set, is called with every
	// CSSInline on the page to decide which has to be rendered first.
	CSSInlineRelationCalculator func(context.Context, CSSInline) ResourceRelationship

	// DisableImplicitOrdering stops the CSSLink from being ordered after
	// the CSSLink declared before it by the same Component.
	DisableImplicitOrdering bool
}

func (c CSSLink) equal(other resource) bool {
	o, ok := other.(CSSLink)
	return ok && o.Href == c.Href
}

func (c CSSLink) sortKey() (int, string) {
	return rankLink, c.Href
}

func (c CSSLink) hasCalculators() bool {
	return c.CSSLinkRelationCalculator != nil || c.CSSInlineRelationCalculator != nil
}

func (c CSSLink) implicitlyOrdered() bool {
	return !c.hasCalculators() && !c.DisableImplicitOrdering
}

func (c CSSLink) relationTo(ctx context.Context, other resource) ResourceRelationship {
	return cssRelation(ctx, c.CSSLinkRelationCalculator, c.CSSInlineRelationCalculator, other)
}

func (c CSSLink) render(_ context.Context, _ resourceRenderer) (template.HTML, error) {
	var b strings.Builder
	b.WriteString("<link")
	writeAttr(&b, "href", c.Href)
	writeAttr(&b, "rel", c.Rel)
	writeAttr(&b, "type", c.Type)
	writeAttr(&b, "media", c.Media)
	writeAttr(&b, "integrity", c.Integrity)
	writeAttr(&b, "crossorigin", c.CrossOrigin)
	b.WriteString(">\n")
	return template.HTML(b.String()), nil // #nosec G203
}

func (c CSSLink) String() string {
	return "CSSLink(" + c.Href + ")"
}

// CSSInline is a block of CSS embedded in a <style> element. The block is an
// html/template, executed with the same RenderData as the page.
type CSSInline struct {
	// TemplatePath is the path to the CSS template in the Site's
	// TemplateDir. Two CSSInlines with the same TemplatePath are
	// considered the same resource and only rendered once.
	TemplatePath string

	// CSSLinkRelationCalculator, when set, is called with every CSSLink
	// on the page to decide which has to be rendered first.
	CSSLinkRelationCalculator func(context.Context, CSSLink) ResourceRelationship

	// CSSInlineRelationCalculator, when set, is called with every other
	// CSSInline on the page to decide which has to be rendered first.
	CSSInlineRelationCalculator func(context.Context, CSSInline) ResourceRelationship

	// DisableImplicitOrdering stops the CSSInline from being ordered
	// after the CSSInline declared before it by the same Component.
	DisableImplicitOrdering bool
}

func (c CSSInline) equal(other resource) bool {
	o, ok := other.(CSSInline)
	return ok && o.TemplatePath == c.TemplatePath
}

func (c CSSInline) sortKey() (int, string) {
	return rankInline, c.TemplatePath
}

func (c CSSInline) hasCalculators() bool {
	return c.CSSLinkRelationCalculator != nil || c.CSSInlineRelationCalculator != nil
}

func (c CSSInline) implicitlyOrdered() bool {
	return !c.hasCalculators() && !c.DisableImplicitOrdering
}

func (c CSSInline) relationTo(ctx context.Context, other resource) ResourceRelationship {
	return cssRelation(ctx, c.CSSLinkRelationCalculator, c.CSSInlineRelationCalculator, other)
}

func (c CSSInline) render(ctx context.Context, r resourceRenderer) (template.HTML, error) {
	return r.renderInline(ctx, c.TemplatePath, "<style>", "</style>")
}

func (c CSSInline) String() string {
	return "CSSInline(" + c.TemplatePath + ")"
}

func cssRelation(ctx context.Context, links func(context.Context, CSSLink) ResourceRelationship, inlines func(context.Context, CSSInline) ResourceRelationship, other resource) ResourceRelationship {
	switch o := other.(type) {
	case CSSLink:
		if links != nil {
			return links(ctx, o)
		}
	case CSSInline:
		if inlines != nil {
			return inlines(ctx, o)
		}
	}
	return ResourceRelationshipNeutral
}
