package meta

// Blank-imported so every driver named in a supported DSN scheme
// ("mysql://", "postgres://", "sqlite3://") is registered with
// database/sql before Open's xorm.NewEngine call needs it.
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)
