package repository

import "github.com/m-mizutani/goerr/v2"

var (
	ErrNotFound      = goerr.New("not found")
	ErrAlreadyExists = goerr.New("already exists")
)

// DefaultListLimit is the number of recent operations returned when no limit is given.
const DefaultListLimit = 20
