package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/testutil"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

func stubOpen(t *testing.T, db *sql.DB, err error) *string {
	t.Helper()
	var gotDriver string
	original := sqlOpen
	t.Cleanup(func() { sqlOpen = original })
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return db, err
	}
	return &gotDriver
}

func testPGConfig() config.PostgresConfig {
	return config.PostgresConfig{Host: "localhost", Port: 5432, User: "tm", Password: "pw", DBName: "tmscreen", SSLMode: "disable"}
}

func TestNewConnection_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	driver := stubOpen(t, db, nil)

	mock.ExpectPing()

	log := testutil.NewRecordingLogger()
	conn, err := NewConnection(testPGConfig(), log)
	require.NoError(t, err)
	assert.Equal(t, "pgx", *driver)
	assert.Equal(t, db, conn.DB())
	assert.True(t, log.Has("info", "Connected to PostgreSQL database"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnection_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	stubOpen(t, db, nil)

	mock.ExpectPing().WillReturnError(stderrors.New("connection refused"))
	mock.ExpectClose()

	conn, err := NewConnection(testPGConfig(), logging.NewNopLogger())
	require.Error(t, err)
	assert.Nil(t, conn)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeDatabaseError, appErr.Code)
	assert.Equal(t, "database connection failed", appErr.Message)
	assert.Contains(t, appErr.Cause.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnection_OpenFailure(t *testing.T) {
	stubOpen(t, nil, stderrors.New("open failed"))

	conn, err := NewConnection(config.PostgresConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
	assert.Nil(t, conn)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestConnection_HealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	conn := NewConnectionWithDB(db, logging.NewNopLogger())

	mock.ExpectPing()
	assert.NoError(t, conn.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(stderrors.New("timeout"))
	err = conn.HealthCheck(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_Stats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conn := NewConnectionWithDB(db, logging.NewNopLogger())
	assert.IsType(t, sql.DBStats{}, conn.Stats())
}

func TestConnection_Close_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn := NewConnectionWithDB(db, logging.NewNopLogger())
	mock.ExpectClose()

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://tm:pw@localhost:5432/tmscreen?sslmode=disable", migrateURL(testPGConfig().PostgresDSN()))
	assert.Equal(t, "not-a-url", migrateURL("not-a-url"))
}

func TestMigrator_DownRejectsNonPositiveSteps(t *testing.T) {
	m := NewMigrator(testPGConfig(), logging.NewNopLogger())
	err := m.Down(0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_screening_reports.up.sql")
	assert.Contains(t, names, "000001_create_screening_reports.down.sql")
}
