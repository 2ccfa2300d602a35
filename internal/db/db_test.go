package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintViolations(t *testing.T) {
	unique := fmt.Errorf("insert photo: %w", &pgconn.PgError{Code: "23505"})
	fk := fmt.Errorf("insert photo: %w", &pgconn.PgError{Code: "23503"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("plain")))
}

func TestNoMatch(t *testing.T) {
	badUUID := fmt.Errorf("get visit: %w", &pgconn.PgError{Code: "22P02"})

	assert.True(t, IsInvalidTextRepresentation(badUUID))
	assert.True(t, IsNoMatch(badUUID))
	assert.True(t, IsNoMatch(pgx.ErrNoRows))
	assert.False(t, IsNoMatch(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsNoMatch(errors.New("connection refused")))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "000001_init.down.sql", entries[0].Name())
	assert.Equal(t, "000001_init.up.sql", entries[1].Name())
}
