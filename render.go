package hp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jabber.at/hp"

var (
	// ErrNoTemplatePath is returned when a Page and its Components list no
	// templates at all.
	ErrNoTemplatePath = errors.New("need at least one template path")

	// ErrTemplatePatternMatchesNoFiles is returned for template patterns
	// matching nothing.
	ErrTemplatePatternMatchesNoFiles = errors.New("pattern matches no files")
)

// Component is a piece of a page rendered from html/template files.
type Component interface {
	// Templates lists the template files the Component needs parsed.
	// fs.Glob patterns are accepted.
	Templates(context.Context) []string
}

// ComponentUser is implemented by Components built from other Components.
// Render walks them recursively, so the optional interfaces of every used
// Component apply too.
type ComponentUser interface {
	UseComponents(context.Context) []Component
}

// FuncMapExtender is implemented by Components and Sites adding functions
// to templates.
//
// FuncMap is called for every render, with the request's context, so the
// functions it returns may close over request-scoped state like the
// visitor's language.
type FuncMapExtender interface {
	FuncMap(context.Context) template.FuncMap
}

// Page is the root Component of a single page.
type Page interface {
	Component

	// Key identifies the parsed templates of the Page in a TemplateCacher.
	// Every Page type needs its own, stable key.
	Key(context.Context) string

	// ExecutedTemplate names the template Render executes. It's usually
	// the layout's base template, with the Page filling in its blocks.
	ExecutedTemplate(context.Context) string
}

// RenderData is what the executed template of a Page receives as dot.
type RenderData[SiteType Site, PageType Page] struct {
	Site SiteType
	Page PageType

	// CSS holds the <link> and <style> elements for every stylesheet the
	// page's Components declared, in order.
	CSS template.HTML

	// HeaderJS holds the <script> elements for every script the page's
	// Components declared that doesn't have PlaceInFooter set.
	HeaderJS template.HTML

	// FooterJS holds the <script> elements for every script the page's
	// Components declared with PlaceInFooter set.
	FooterJS template.HTML
}

// Render renders the passed Page to the Writer. If it can't, a server error
// page is written instead. If the Site implements ServerErrorPager, that will
// be rendered; if not, a simple text page indicating a server error will be
// written.
//
// Output is buffered, so a failed render never leaves half a page behind.
func Render[SiteType Site, PageType Page](ctx context.Context, out io.Writer, site SiteType, page PageType) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "hp.Render", trace.WithAttributes(
		attribute.String("hp.page.key", page.Key(ctx)),
		attribute.String("hp.page.type", fmt.Sprintf("%T", page)),
	))
	defer span.End()

	defer func() {
		// if the writer can be closed, let's try to close it
		if closer, ok := out.(io.Closer); ok {
			err := closer.Close()
			if err != nil {
				logger(ctx).ErrorContext(ctx, "error closing writer", "error", err)
			}
		}
	}()

	err := basicRender(ctx, out, site, page)
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "render failed")
	logger(ctx).ErrorContext(ctx, "error rendering page", "error", err, "page", page.Key(ctx))

	if pager, ok := Site(site).(ServerErrorPager); ok {
		err = basicRender(ctx, out, site, pager.ServerErrorPage(ctx))
		if err != nil {
			// nothing left to fall back on
			logger(ctx).ErrorContext(ctx, "error rendering server error page", "error", err)
		}
		return
	}

	_, err = out.Write([]byte("Server error."))
	if err != nil {
		logger(ctx).ErrorContext(ctx, "error writing server error message", "error", err)
	}
}

func basicRender[SiteType Site, PageType Page](ctx context.Context, out io.Writer, site SiteType, page PageType) error {
	components := getRecursiveComponents(ctx, page)
	funcMap := getComponentFuncMap(ctx, site, components)

	tmpl, err := getTemplate(ctx, site, page, components, funcMap)
	if err != nil {
		return err
	}

	data := RenderData[SiteType, PageType]{
		Site: site,
		Page: page,
	}
	graphs := buildGraphs(ctx, components)
	renderer := resourceRenderer{
		site:  site,
		funcs: funcMap,
		data:  data,
	}
	data.CSS, err = renderer.renderGraph(ctx, graphs.css)
	if err != nil {
		return fmt.Errorf("error rendering CSS for %T: %w", page, err)
	}
	data.HeaderJS, err = renderer.renderGraph(ctx, graphs.headJS)
	if err != nil {
		return fmt.Errorf("error rendering header JavaScript for %T: %w", page, err)
	}
	data.FooterJS, err = renderer.renderGraph(ctx, graphs.footJS)
	if err != nil {
		return fmt.Errorf("error rendering footer JavaScript for %T: %w", page, err)
	}

	var buf bytes.Buffer
	executed := page.ExecutedTemplate(ctx)
	err = tmpl.ExecuteTemplate(&buf, executed, data)
	if err != nil {
		return fmt.Errorf("error executing template %q for %T: %w", executed, page, err)
	}
	_, err = buf.WriteTo(out)
	if err != nil {
		return fmt.Errorf("error writing %T: %w", page, err)
	}
	return nil
}

// getTemplate returns a template ready to be executed for page. Parsed
// templates are cached unexecuted, and every render works on a clone with
// the current funcMap bound, so request-scoped functions never leak between
// renders.
func getTemplate(ctx context.Context, site Site, page Page, components []Component, funcMap template.FuncMap) (*template.Template, error) {
	key := page.Key(ctx)
	parsed, err := loadTemplate(ctx, site, key, func() (*template.Template, error) {
		tmplPaths := getComponentTemplatePaths(ctx, components)
		if len(tmplPaths) < 1 {
			return nil, fmt.Errorf("error rendering %T: %w", page, ErrNoTemplatePath)
		}
		parsed, err := parseTemplates(site.TemplateDir(ctx), funcMap, tmplPaths...)
		if err != nil {
			return nil, fmt.Errorf("error parsing templates %v for page %T: %w", tmplPaths, page, err)
		}
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}
	clone, err := parsed.Clone()
	if err != nil {
		return nil, fmt.Errorf("error cloning templates for page %T: %w", page, err)
	}
	return clone.Funcs(funcMap), nil
}

func loadTemplate(ctx context.Context, site Site, key string, parse func() (*template.Template, error)) (*template.Template, error) {
	cache, ok := site.(TemplateCacher)
	if !ok {
		return parse()
	}
	if cached := cache.GetCachedTemplate(ctx, key); cached != nil {
		return cached, nil
	}
	parseAndStore := func() (*template.Template, error) {
		parsed, err := parse()
		if err != nil {
			return nil, err
		}
		cache.SetCachedTemplate(ctx, key, parsed)
		return parsed, nil
	}
	if deduper, ok := site.(parseDeduper); ok {
		return deduper.dedupeParse(key, parseAndStore)
	}
	return parseAndStore()
}

func getRecursiveComponents(ctx context.Context, component Component) []Component {
	results := []Component{component}

	if uses, ok := component.(ComponentUser); ok {
		for _, child := range uses.UseComponents(ctx) {
			results = append(results, getRecursiveComponents(ctx, child)...)
		}
	}
	return results
}

func getComponentTemplatePaths(ctx context.Context, components []Component) []string {
	var results []string
	seen := map[string]struct{}{}
	for _, comp := range components {
		for _, path := range comp.Templates(ctx) {
			if _, ok := seen[path]; ok {
				continue
			}
			results = append(results, path)
			seen[path] = struct{}{}
		}
	}
	return results
}

func getComponentFuncMap(ctx context.Context, site Site, components []Component) template.FuncMap {
	results := template.FuncMap{}
	if fm, ok := site.(FuncMapExtender); ok {
		results = mergeFuncMaps(results, fm.FuncMap(ctx))
	}
	for _, comp := range components {
		fm, ok := comp.(FuncMapExtender)
		if !ok {
			continue
		}
		results = mergeFuncMaps(results, fm.FuncMap(ctx))
	}
	return results
}

func parseTemplates(fsys fs.FS, funcs template.FuncMap, patterns ...string) (*template.Template, error) {
	var files []string
	for _, pattern := range patterns {
		list, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error listing files for %q: %w", pattern, err)
		}
		if len(list) < 1 {
			return nil, fmt.Errorf("error parsing %q: %w", pattern, ErrTemplatePatternMatchesNoFiles)
		}
		files = append(files, list...)
	}
	if len(files) < 1 {
		return nil, ErrNoTemplatePath
	}
	tmpl := template.New("").Funcs(funcs)
	for _, file := range files {
		contents, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("error reading %q: %w", file, err)
		}
		_, err = tmpl.New(file).Parse(string(contents))
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: %w", file, err)
		}
	}
	return tmpl, nil
}

// mergeFuncMaps returns in and next combined. Functions in next win.
func mergeFuncMaps(in, next template.FuncMap) template.FuncMap {
	res := make(template.FuncMap, len(in)+len(next))
	maps.Copy(res, in)
	maps.Copy(res, next)
	return res
}
