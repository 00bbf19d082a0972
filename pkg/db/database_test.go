package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteInMemory(t *testing.T) {
	gdb, err := Open(context.Background(), DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, Ping(context.Background(), gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), DriverPostgres, "")
	require.Error(t, err)

	_, err = Open(context.Background(), "mysql", "dsn")
	require.ErrorContains(t, err, "unsupported DB_DRIVER")
}
