package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The shared-cache DSN
// keeps all pooled connections on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&Category{},
		&ProductType{},
		&Product{},
		&ProductImage{},
	))
	return db
}

func uintPtr(v uint) *uint { return &v }

// seedSubtree creates the "Valves > Ball Valves > Series X > BV-100" chain
// used across listing tests, plus an unrelated root with its own product.
func seedSubtree(t *testing.T, db *gorm.DB) (root, leaf *Category) {
	t.Helper()
	categories := NewCategoriesRepository(db)

	valves := &Category{Name: "Valves", Slug: "valves"}
	require.NoError(t, categories.Create(valves))

	ball := &Category{Name: "Ball Valves", Slug: "ball-valves", ParentID: uintPtr(valves.ID)}
	require.NoError(t, categories.Create(ball))

	fittings := &Category{Name: "Fittings", Slug: "fittings"}
	require.NoError(t, categories.Create(fittings))

	seriesX := &ProductType{CategoryID: ball.ID, Name: "Series X", Slug: "series-x"}
	require.NoError(t, db.Create(seriesX).Error)

	elbows := &ProductType{CategoryID: fittings.ID, Name: "Elbows", Slug: "elbows"}
	require.NoError(t, db.Create(elbows).Error)

	require.NoError(t, db.Create(&Product{
		ProductTypeID: seriesX.ID, SKU: "BV-100", Name: "Ball Valve 100", Multiplicity: 1, Unit: "pcs",
	}).Error)
	require.NoError(t, db.Create(&Product{
		ProductTypeID: elbows.ID, SKU: "EL-200", Name: "Elbow 200", Multiplicity: 1, Unit: "pcs",
	}).Error)

	// Positions were rewritten by the renumbering transactions; reload.
	require.NoError(t, db.First(valves, valves.ID).Error)
	require.NoError(t, db.First(ball, ball.ID).Error)
	return valves, ball
}
