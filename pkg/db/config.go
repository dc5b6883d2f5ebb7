package db

type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	SQLitePath      string
	Debug           bool
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)
