// Package bootstrap describes how forms are laid out with Bootstrap: which
// buttons a form has, in what order, and the grid columns of its fields.
package bootstrap

import (
	"slices"
	"strings"
)

// DefaultOffsetColumns are the grid classes of the button row of a
// horizontal form, lining the buttons up with the inputs.
const DefaultOffsetColumns = "col-sm-10 offset-sm-2"

// Button is a button at the end of a form.
type Button struct {
	// Name identifies the button, and is sent as the name of a submit
	// button.
	Name string

	// Text is the untranslated label of the button.
	Text string

	// Variant is the Bootstrap color variant, e.g. "primary" or
	// "outline-secondary".
	Variant string

	// Size is "sm" or "lg", or empty for the default size.
	Size string
}

// Class returns the CSS classes of the button.
func (b Button) Class() string {
	classes := []string{"btn"}
	if b.Variant != "" {
		classes = append(classes, "btn-"+b.Variant)
	}
	if b.Size != "" {
		classes = append(classes, "btn-"+b.Size)
	}
	return strings.Join(classes, " ")
}

// Form holds the layout of a form. The zero value has no buttons; use
// NewForm for one with a submit button.
type Form struct {
	// ButtonOrder lists button names in the order they are shown.
	// Buttons that aren't listed come first.
	ButtonOrder []string

	// LabelColumns and InputColumns are the grid classes of labels and
	// inputs of a horizontal form. Both are empty for a vertical form.
	LabelColumns string
	InputColumns string

	// OffsetColumns are the grid classes of the button row of a
	// horizontal form.
	OffsetColumns string

	buttons map[string]Button
}

// NewForm returns a Form with a primary "Submit" button. Passing a button
// named "submit" replaces it, other buttons are added.
func NewForm(buttons ...Button) Form {
	f := Form{
		ButtonOrder:   []string{"submit"},
		OffsetColumns: DefaultOffsetColumns,
	}
	f.SetButton(Button{Name: "submit", Text: "Submit", Variant: "primary"})
	for _, b := range buttons {
		f.SetButton(b)
	}
	return f
}

// SetButton adds b to the form, replacing any button with the same name.
func (f *Form) SetButton(b Button) {
	if f.buttons == nil {
		f.buttons = make(map[string]Button)
	}
	f.buttons[b.Name] = b
}

// RemoveButton removes the button called name.
func (f *Form) RemoveButton(name string) {
	delete(f.buttons, name)
}

// Buttons returns the buttons of the form in the order they are shown.
// Buttons missing from ButtonOrder come first, sorted by name.
func (f Form) Buttons() []Button {
	buttons := make([]Button, 0, len(f.buttons))
	for _, b := range f.buttons {
		buttons = append(buttons, b)
	}
	slices.SortFunc(buttons, func(a, b Button) int {
		if d := slices.Index(f.ButtonOrder, a.Name) - slices.Index(f.ButtonOrder, b.Name); d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})
	return buttons
}

// Horizontal reports whether labels and inputs share a row.
func (f Form) Horizontal() bool {
	return f.LabelColumns != "" || f.InputColumns != ""
}
