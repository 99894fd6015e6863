// Package hp renders the pages of the homepage. It is built on top of the
// html/template package.
//
// Rendering is organized around Components and Pages. A Component is some
// piece of the HTML document that needs to be included in the page's output:
// the navbar, the menu tree inside it, the footer, the base layout every page
// shares. A Page is a Component that gets rendered itself rather than being
// included in another Component. The homepage is a Page; the layout it fills
// blocks in is a Component.
//
// Every server has a single Site. The Site provides the fs.FS containing the
// templates that Components use, and is available at render time as .Site, so
// it can hold configuration that all pages have in common, like the site name
// or the menu tree.
//
// To render a page, pass it to Render. The page itself is available as .Page
// within the template and the Site as .Site.
//
// Components declare the stylesheets and scripts they need through the
// CSSLinker, CSSEmbedder, JSLinker and JSEmbedder interfaces. Render collects
// them from every Component in the tree, drops duplicates, orders them and
// makes the resulting HTML available as .CSS, .HeaderJS and .FooterJS. Within
// a single Component, resources keep the order they were declared in; across
// Components, order can be controlled with relation calculators that return a
// ResourceRelationship.
//
// When a Component relies on another Component, make an instance of the
// dependency a property on the Component's struct and return it from
// UseComponents. Its templates, resources and template functions will then be
// included whenever the dependent Component is rendered.
package hp
