package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	gormModels "github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/gorm"
)

func TestSeedDatabaseIsIdempotent(t *testing.T) {
	db, err := SetupDatabase("", logger.Silent)
	require.NoError(t, err)

	require.NoError(t, SeedDatabase(db))
	require.NoError(t, SeedDatabase(db))

	var recipes, links int64
	require.NoError(t, db.Model(&gormModels.RecipeModel{}).Count(&recipes).Error)
	require.NoError(t, db.Model(&gormModels.SubRecipeLinkModel{}).Count(&links).Error)
	assert.Equal(t, int64(5), recipes)
	assert.Equal(t, int64(1), links)
}
