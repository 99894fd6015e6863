package hp

import (
	"context"
	"html/template"
	"strings"
)

// JSEmbedder is an interface that Components can fulfill to include some
// JavaScript that should be embedded directly into the rendered HTML, inside
// <script> elements.
type JSEmbedder interface {
	// EmbedJS returns the scripts that should be embedded directly in the
	// output HTML.
	EmbedJS(context.Context) []JSInline
}

// JSLinker is an interface that Components can fulfill to include some
// JavaScript that should be loaded separately from the HTML document, using a
// <script> element with a src attribute.
type JSLinker interface {
	// LinkJS returns the scripts that should be linked to from the output
	// HTML.
	LinkJS(context.Context) []JSLink
}

// JSLink is a script loaded through a <script src> element.
type JSLink struct {
	// Src is the URL of the script. Two JSLinks with the same Src are
	// considered the same resource and only rendered once.
	Src string

	// Type, Integrity and CrossOrigin set the attributes of the same
	// names; empty values are left out.
	Type        string
	Integrity   string
	CrossOrigin string

	// Async and Defer add the boolean attributes of the same names.
	Async bool
	Defer bool

	// PlaceInFooter renders the script as part of .FooterJS instead of
	// .HeaderJS. Scripts are only ever ordered against other scripts in
	// the same place.
	PlaceInFooter bool

	// JSLinkRelationCalculator, when set, is called with every other
	// JSLink in the same place to decide which has to be rendered first.
	JSLinkRelationCalculator func(context.Context, JSLink) ResourceRelationship

	// JSInlineRelationCalculator, when set, is called with every JSInline
	// in the same place to decide which has to be rendered first.
	JSInlineRelationCalculator func(context.Context, JSInline) ResourceRelationship

	// DisableImplicitOrdering stops the JSLink from being ordered after
	// the JSLink declared before it by the same Component.
	DisableImplicitOrdering bool
}

func (j JSLink) equal(other resource) bool {
	o, ok := other.(JSLink)
	return ok && o.Src == j.Src
}

func (j JSLink) sortKey() (int, string) {
	return rankLink, j.Src
}

func (j JSLink) hasCalculators() bool {
	return j.JSLinkRelationCalculator != nil || j.JSInlineRelationCalculator != nil
}

func (j JSLink) implicitlyOrdered() bool {
	return !j.hasCalculators() && !j.DisableImplicitOrdering
}

func (j JSLink) relationTo(ctx context.Context, other resource) ResourceRelationship {
	return jsRelation(ctx, j.JSLinkRelationCalculator, j.JSInlineRelationCalculator, other)
}

func (j JSLink) render(_ context.Context, _ resourceRenderer) (template.HTML, error) {
	var b strings.Builder
	b.WriteString("<script")
	writeAttr(&b, "type", j.Type)
	writeAttr(&b, "src", j.Src)
	writeAttr(&b, "integrity", j.Integrity)
	writeAttr(&b, "crossorigin", j.CrossOrigin)
	writeFlag(&b, "async", j.Async)
	writeFlag(&b, "defer", j.Defer)
	b.WriteString("></script>\n")
	return template.HTML(b.String()), nil // #nosec G203
}

func (j JSLink) String() string {
	return "JSLink(" + j.Src + ")"
}

// JSInline is a script embedded in a <script> element. The script is an
// html/template, executed with the same RenderData as the page and escaped
// for JavaScript.
type JSInline struct {
	// TemplatePath is the path to the script's template in the Site's
	// TemplateDir. Two JSInlines with the same TemplatePath are
	// considered the same resource and only rendered once.
	TemplatePath string

	// Type sets the type attribute of the <script> element, e.g.
	// "module".
	Type string

	// PlaceInFooter renders the script as part of .FooterJS instead of
	// .HeaderJS.
	PlaceInFooter bool

	// JSLinkRelationCalculator, when set, is called with every JSLink in
	// the same place to decide which has to be rendered first.
	JSLinkRelationCalculator func(context.Context, JSLink) ResourceRelationship

	// JSInlineRelationCalculator, when set, is called with every other
	// JSInline in the same place to decide which has to be rendered
	// first.
	JSInlineRelationCalculator func(context.Context, JSInline) ResourceRelationship

	// DisableImplicitOrdering stops the JSInline from being ordered after
	// the JSInline declared before it by the same Component.
	DisableImplicitOrdering bool
}

func (j JSInline) equal(other resource) bool {
	o, ok := other.(JSInline)
	return ok && o.TemplatePath == j.TemplatePath
}

func (j JSInline) sortKey() (int, string) {
	return rankInline, j.TemplatePath
}

func (j JSInline) hasCalculators() bool {
	return j.JSLinkRelationCalculator != nil || j.JSInlineRelationCalculator != nil
}

func (j JSInline) implicitlyOrdered() bool {
	return !j.hasCalculators() && !j.DisableImplicitOrdering
}

func (j JSInline) relationTo(ctx context.Context, other resource) ResourceRelationship {
	return jsRelation(ctx, j.JSLinkRelationCalculator, j.JSInlineRelationCalculator, other)
}

func (j JSInline) render(ctx context.Context, r resourceRenderer) (template.HTML, error) {
	var open strings.Builder
	open.WriteString("<script")
	writeAttr(&open, "type", j.Type)
	open.WriteString(">")
	return r.renderInline(ctx, j.TemplatePath, open.String(), "</script>")
}

func (j JSInline) String() string {
	return "JSInline(" + j.TemplatePath + ")"
}

func jsRelation(ctx context.Context, links func(context.Context, JSLink) ResourceRelationship, inlines func(context.Context, JSInline) ResourceRelationship, other resource) ResourceRelationship {
	switch o := other.(type) {
	case JSLink:
		if links != nil {
			return links(ctx, o)
		}
	case JSInline:
		if inlines != nil {
			return inlines(ctx, o)
		}
	}
	return ResourceRelationshipNeutral
}
