package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "flowline",
		Password: "secret",
		Name:     "flowline",
		Host:     "db.internal",
		Port:     5433,
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=db.internal")
	require.Contains(t, dsn, "port=5433")
	require.Contains(t, dsn, "sslmode=disable")
	require.Contains(t, dsn, "application_name=flowline")
	require.Contains(t, dsn, "TimeZone=UTC")
}

func TestBuildPostgresDSNDefaultsDatabaseName(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "app"})
	require.NoError(t, err)
	require.Contains(t, dsn, "dbname=flowline")
}

func TestBuildPostgresDSNRequiresUser(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "flowline",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "flowline@tcp(127.0.0.1:3306)/flowline")
	require.Contains(t, dsn, "parseTime=True")
	require.Contains(t, dsn, "loc=UTC")
	require.Contains(t, dsn, "collation=utf8mb4_unicode_ci")
}

func TestBuildMySQLDSNOptionOverride(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:    "flowline",
		Options: map[string]string{"loc": "Local"},
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "loc=Local")
	require.NotContains(t, dsn, "loc=UTC")
}

func TestDSNOverrideWins(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{DSN: "custom-dsn"})
	require.NoError(t, err)
	require.Equal(t, "custom-dsn", dsn)
}
