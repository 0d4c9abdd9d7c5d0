package sqlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/ranger/internal/ranger"
)

// Ensure Repo implements the Repository interface
var _ ranger.Repository = (*Repo)(nil)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}
