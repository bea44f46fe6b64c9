package appfs

import "embed"

// FS holds the HTML templates of the web pages.
//go:embed templates/*.gohtml
var FS embed.FS
