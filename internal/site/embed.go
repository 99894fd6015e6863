package site

import (
	"bytes"
	"embed"
	"io/fs"

	"jabber.at/hp/menu"
)

var (
	//go:embed templates
	templateFiles embed.FS

	//go:embed static
	staticFiles embed.FS

	//go:embed locale
	localeFiles embed.FS

	//go:embed menu.yaml
	defaultMenu []byte
)

func sub(fsys embed.FS, dir string) fs.FS {
	res, err := fs.Sub(fsys, dir)
	if err != nil {
		// dir is a constant embedded above
		panic(err)
	}
	return res
}

// Templates returns the templates embedded in the binary.
func Templates() fs.FS {
	return sub(templateFiles, "templates")
}

// Static returns the static files embedded in the binary.
func Static() fs.FS {
	return sub(staticFiles, "static")
}

// Locales returns the translations embedded in the binary.
func Locales() fs.FS {
	return sub(localeFiles, "locale")
}

// DefaultMenu returns the menu embedded in the binary.
func DefaultMenu() (*menu.Tree, error) {
	return menu.Load(bytes.NewReader(defaultMenu))
}
