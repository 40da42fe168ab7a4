package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid Driver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "postgres"})
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("SQLite Missing Path", func(t *testing.T) {
		db, err := Connect(Config{Driver: DriverSQLite})
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("SQLite File", func(t *testing.T) {
		path := t.TempDir() + "/state.db"
		db, err := Connect(Config{Driver: DriverSQLite, Path: path})
		assert.NoError(t, err)
		assert.NotNil(t, db)
	})

	t.Run("MySQL Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         DriverMySQL,
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "collection_tracker",
			TimeoutSeconds: 1,
		}

		// Connect should fail (timeout or refused)
		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestConfig_IsValidDriver(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		want   bool
	}{
		{"SQLite", DriverSQLite, true},
		{"MySQL", DriverMySQL, true},
		{"Invalid", "postgres", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{Driver: tt.driver}
			assert.Equal(t, tt.want, c.IsValidDriver())
		})
	}
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("arena_id", "bigint", "NO", "PRI", nil, "").
		AddRow("quantity", "bigint", "NO", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `cards`").WillReturnRows(rows)

	cols, err := GetTableColumns(db, "cards")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "arena_id", cols[0].Field)
	assert.Equal(t, "bigint", cols[0].Type)
	assert.Equal(t, "quantity", cols[1].Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}
