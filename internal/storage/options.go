package storage

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// Backend names a supported database engine.
type Backend string

const (
	BackendSqlite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Purpose distinguishes the independently configured stores. Each
// purpose carries its own schema and record tables.
type Purpose string

const (
	PurposeContent Purpose = "content"
	PurposePlayer  Purpose = "player"
	PurposeLogging Purpose = "logging"
)

// Options is one backend's connection configuration. Path applies to
// sqlite; the host fields apply to postgres.
type Options struct {
	Backend Backend `json:"backend"`

	Path string `json:"path,omitempty"`

	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (o *Options) Validate() error {
	el := errors.NewErrorList()

	switch o.Backend {
	case BackendSqlite:
		if o.Path == "" {
			el.Add(fmt.Errorf("path is required for sqlite"))
		}
	case BackendPostgres:
		if o.Host == "" {
			el.Add(fmt.Errorf("host is required for postgres"))
		}
		if o.Port <= 0 {
			el.Add(fmt.Errorf("port is required for postgres"))
		}
		if o.Database == "" {
			el.Add(fmt.Errorf("database is required for postgres"))
		}
		if o.Username == "" {
			el.Add(fmt.Errorf("username is required for postgres"))
		}
	default:
		el.Add(fmt.Errorf("unknown backend %q", o.Backend))
	}

	return el.Err()
}

// Addr describes the connection target without credentials, for
// errors and logs.
func (o *Options) Addr() string {
	switch o.Backend {
	case BackendSqlite:
		return o.Path
	case BackendPostgres:
		return fmt.Sprintf("%s:%d/%s", o.Host, o.Port, o.Database)
	default:
		return string(o.Backend)
	}
}
