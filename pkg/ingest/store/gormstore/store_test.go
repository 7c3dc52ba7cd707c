package gormstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tigerroll/tidewrite/pkg/ingest/store/gormstore"
)

// setupMockStore sets up a GORM handle backed by sqlmock and wraps it in a Store.
func setupMockStore(t *testing.T) (*gormstore.Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		sqlDB.Close()
	})

	return gormstore.NewStoreFromDB(gormDB, "mysql", "primary"), mock
}

func TestUpsert_CreatesNewRow(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `ingest_records` WHERE id = \\?").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `ingest_records`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := s.Upsert(context.Background(), "rec-1", map[string]string{
		"status": "Active",
		"name":   "alpha",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_UpdatesExistingRow(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `ingest_records` WHERE id = \\?").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectExec("INSERT INTO `ingest_records`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := s.Upsert(context.Background(), "rec-1", map[string]string{
		"status": "Inactive",
		"name":   "alpha",
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_RollsBackOnInsertFailure(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `ingest_records` WHERE id = \\?").
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `ingest_records`").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.Upsert(context.Background(), "rec-1", map[string]string{"status": "Active"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Accessors(t *testing.T) {
	s, _ := setupMockStore(t)
	assert.Equal(t, "mysql", s.Type())
	assert.Equal(t, "primary", s.Name())
	assert.NotNil(t, s.DB())
}
