//go:build cgo

package dbclient

import _ "github.com/tursodatabase/go-libsql"

func init() { libsqlAvailable = true }
