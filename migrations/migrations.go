// Package migrations carries the SQL migrations applied on startup after
// gorm's AutoMigrate, for indexes AutoMigrate cannot express.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
