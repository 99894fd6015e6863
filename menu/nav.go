package menu

import (
	"context"

	"jabber.at/hp"
)

// NavTemplatePath is where Nav expects its template in the Site's template
// directory. The template must define "menu", rendering a list of Nodes, and
// "menu-node", rendering a single Node and calling itself for its children.
const NavTemplatePath = "menu/nav.html.tmpl"

var _ hp.Component = Nav{}

// Nav is a Component rendering resolved menu Nodes as a bootstrap navbar.
type Nav struct {
	Nodes []Node
}

// Templates returns the template defining "menu" and "menu-node".
func (Nav) Templates(_ context.Context) []string {
	return []string{NavTemplatePath}
}
