package db

import (
	"database/sql"
	"fmt"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		file := config.File
		if file == "" {
			file = ":memory:"
		}
		database, err := sql.Open("sqlite", file)
		if err != nil {
			return nil, err
		}
		if file == ":memory:" {
			// every pooled connection would otherwise get its own
			// empty in-memory database
			database.SetMaxOpenConns(1)
		}
		return database, nil
	}

	url := config.Url
	if config.AuthToken != "" {
		url = fmt.Sprintf("%s?authToken=%s", url, config.AuthToken)
	}
	return sql.Open("libsql", url)
}
