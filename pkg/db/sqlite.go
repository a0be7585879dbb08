package db

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is the database/sql driver used for the sqlite dialect.
// It is go-sqlite3 with lower() replaced by a Unicode-aware version, so
// catalog search folds "ÄPFEL" the way Postgres does.
const SQLiteDriverName = "sqlite3_fruitshop"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{ConnectHook: registerSQLiteFuncs})
}

func registerSQLiteFuncs(conn *sqlite3.SQLiteConn) error {
	return conn.RegisterFunc("lower", unicodeLower, true)
}

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// SQLiteDialector opens dsn through SQLiteDriverName.
func SQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}
