// Package migrations embeds the SQL schema migrations for the
// provider-account directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Path is the directory the embedded files live under, as seen by the
// iofs migration source.
const Path = "."
