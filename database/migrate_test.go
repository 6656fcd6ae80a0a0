package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()

	m, err := GetMigrate(connString)
	require.NoError(t, err)
	defer m.Close()

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	for i := 1; i <= len(fnames); i++ {
		// step up
		err = m.Steps(i)
		assert.NoError(t, err)

		// step down
		err = m.Steps(-i)
		assert.NoError(t, err)

		// step up again
		err = m.Steps(i)
		assert.NoError(t, err)
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()

	require.NoError(t, MigrateUp(connString))
	require.NoError(t, MigrateUp(connString))

	var count int
	err := db.QueryRow(ctx, "SELECT COUNT(*) FROM agents").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "postgres scheme", in: "postgres://u:p@h:5432/db", want: "pgx5://u:p@h:5432/db"},
		{name: "postgresql scheme", in: "postgresql://u@h/db?sslmode=disable", want: "pgx5://u@h/db?sslmode=disable"},
		{name: "already rewritten", in: "pgx5://u@h/db", want: "pgx5://u@h/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}
