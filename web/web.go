// Package web holds the server-rendered dashboard templates.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"inc": func(n int) int { return n + 1 },
}

// Templates parses every page template. Names are the file base names,
// e.g. "page.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}
