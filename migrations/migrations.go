// Package migrations — схема локального кэша, накатывается goose при открытии.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
