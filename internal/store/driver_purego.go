//go:build purego

package store

import _ "modernc.org/sqlite"

const driverName = "sqlite"
