package database

import (
	"database/sql"
)

type PgCollabRepository struct {
	conn *sql.DB
}

func NewPgCollabRepository(dsn string) (*PgCollabRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgCollabRepository{conn: db}, nil
}

func (db *PgCollabRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgCollabRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
