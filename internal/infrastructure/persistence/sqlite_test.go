package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/partner"
	"github.com/erp/amazon-connector/internal/domain/trade"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema.
// sqlite honours the unique indexes the same way postgres does, which is what
// the duplicate-detection tests rely on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&partner.Country{},
		&partner.CountryState{},
		&partner.Partner{},
		&trade.SaleOrder{},
		&trade.SaleOrderLine{},
		&amazon.Backend{},
		&amazon.ReportAttachment{},
		&amazon.ProductBinding{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
