package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/config"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

func TestMigrate_IsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db, zap.NewNop()))
	require.NoError(t, Migrate(db, zap.NewNop()))

	for _, idx := range indexes {
		assert.True(t, db.Migrator().HasIndex(idx.table, idx.name), idx.name)
	}
}

func TestDialector(t *testing.T) {
	cases := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{driver: "mysql", name: "mysql"},
		{driver: "postgres", name: "postgres"},
		{driver: "sqlserver", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBDriver: tc.driver, DBHost: "db", DBPort: "1", DBUser: "u", DBName: "n"})
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, d.Name())
		})
	}
}

func TestPaginate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	type pageRow struct{ ID uint64 }
	require.NoError(t, db.AutoMigrate(&pageRow{}))
	for i := 0; i < 25; i++ {
		require.NoError(t, db.Create(&pageRow{}).Error)
	}

	var rows []pageRow
	require.NoError(t, db.Scopes(Paginate(utils.PaginationParams{Page: 3, Limit: 10, Offset: 20})).Order("id").Find(&rows).Error)
	require.Len(t, rows, 5)
	assert.Equal(t, uint64(21), rows[0].ID)

	rows = nil
	require.NoError(t, db.Scopes(Paginate(utils.PaginationParams{})).Find(&rows).Error)
	assert.Len(t, rows, 25)
}
