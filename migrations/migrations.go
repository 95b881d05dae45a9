// Package migrations embeds the SQL schema owned by this repository: the
// import ledger and quote requests. Vendure manages its own tables.
package migrations

import "embed"

// FS holds the *.sql files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
