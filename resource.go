package hp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
)

// ResourceRelationship controls the relationship between two resources. It's
// used to control the order in which CSS and JavaScript resources are rendered
// to the page.
type ResourceRelationship string

const (
	// ResourceRelationshipAfter indicates that the resource should be
	// rendered after the resource it's being compared to.
	ResourceRelationshipAfter ResourceRelationship = "after"

	// ResourceRelationshipBefore indicates that the resource should be
	// rendered before the resource it's being compared to.
	ResourceRelationshipBefore ResourceRelationship = "before"

	// ResourceRelationshipNeutral indicates that the resource has no
	// restrictions about where it's rendered in relation to the resource
	// it's being compared to. Prefer leaving the relation calculators nil
	// over calculators that only ever return ResourceRelationshipNeutral:
	// a resource with a calculator set opts out of implicit ordering.
	ResourceRelationshipNeutral ResourceRelationship = "neutral"
)

// resource is a node in one of the ordering graphs: a CSSLink, CSSInline,
// JSLink or JSInline.
type resource interface {
	// equal reports whether other would render the same element.
	equal(other resource) bool

	// sortKey breaks ties between resources with no ordering
	// constraints: lower ranks first, then keys in lexical order.
	sortKey() (rank int, key string)

	// implicitlyOrdered reports whether the resource should follow the
	// resource declared before it by the same Component.
	implicitlyOrdered() bool

	// hasCalculators reports whether relationTo can return anything but
	// ResourceRelationshipNeutral.
	hasCalculators() bool

	// relationTo returns where this resource needs to be rendered in
	// relation to other.
	relationTo(ctx context.Context, other resource) ResourceRelationship

	// render returns the HTML element for the resource.
	render(ctx context.Context, r resourceRenderer) (template.HTML, error)

	// String identifies the resource in error messages.
	String() string
}

const (
	rankLink = iota
	rankInline
)

// resourceRenderer holds what inline resources need to execute their
// templates.
type resourceRenderer struct {
	site  Site
	funcs template.FuncMap
	data  any
}

func (r resourceRenderer) renderGraph(ctx context.Context, g *graph) (template.HTML, error) {
	ordered, err := g.walk(ctx)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, res := range ordered {
		html, err := res.render(ctx, r)
		if err != nil {
			return "", fmt.Errorf("error rendering %s: %w", res, err)
		}
		out.WriteString(string(html))
	}
	return template.HTML(out.String()), nil // #nosec G203
}

// renderInline executes the template at path wrapped in an element, so
// html/template escapes any actions for the element's content: CSS inside
// <style>, JavaScript inside <script>.
func (r resourceRenderer) renderInline(ctx context.Context, path, openTag, closeTag string) (template.HTML, error) {
	src, err := r.source(ctx, path)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(path).Funcs(r.funcs).Parse(openTag + "\n" + src + "\n" + closeTag + "\n")
	if err != nil {
		return "", fmt.Errorf("error parsing %q: %w", path, err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, r.data)
	if err != nil {
		return "", fmt.Errorf("error executing %q: %w", path, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203
}

func (r resourceRenderer) source(ctx context.Context, path string) (string, error) {
	cache, cacheable := r.site.(ResourceCacher)
	if cacheable {
		if cached := cache.GetCachedResource(ctx, path); cached != nil {
			return *cached, nil
		}
	}
	contents, err := fs.ReadFile(r.site.TemplateDir(ctx), path)
	if err != nil {
		return "", fmt.Errorf("error reading %q: %w", path, err)
	}
	if cacheable {
		cache.SetCachedResource(ctx, path, string(contents))
	}
	return string(contents), nil
}

// writeAttr appends ` name="value"` to b, skipping empty values.
func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(template.HTMLEscapeString(value))
	b.WriteString(`"`)
}

// writeFlag appends a boolean attribute to b when set is true.
func writeFlag(b *strings.Builder, name string, set bool) {
	if !set {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
}
