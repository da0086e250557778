// Package db provides the embedded catalog schema.
package db

import _ "embed"

// Schema contains the DDL for the products table and its indexes. Every
// statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
