// Package all registers every storage backend with the factory.
// Blank-import it from commands that select a backend at runtime.
package all

import (
	_ "weaponstats/internal/storage/mssql"
	_ "weaponstats/internal/storage/postgres"
	_ "weaponstats/internal/storage/sqlite"
)
