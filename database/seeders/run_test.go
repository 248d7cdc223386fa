package seeders_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/database/seeders"
	"github.com/kwanzatukule/marketplace/pkg/auth"
	"github.com/kwanzatukule/marketplace/pkg/testkit"
)

func TestSeedersAreIdempotent(t *testing.T) {
	db := testkit.OpenDB(t, &models.User{}, &models.Produce{})
	var out bytes.Buffer

	require.NoError(t, seeders.RunAll(db, &out, seeders.Default()...))
	require.NoError(t, seeders.RunAll(db, &out, seeders.Default()...))

	var users, produce int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Produce{}).Count(&produce).Error)
	assert.EqualValues(t, 3, users)
	assert.EqualValues(t, 3, produce)
	assert.Contains(t, out.String(), "Running seeder: produce … done")

	var farmer models.User
	require.NoError(t, db.Where("role = ?", models.RoleFarmer).First(&farmer).Error)
	assert.True(t, auth.CheckPassword(farmer.PasswordHash, seeders.DemoPassword))
}

func TestSeedProduceNeedsFarmer(t *testing.T) {
	db := testkit.OpenDB(t, &models.User{}, &models.Produce{})
	var out bytes.Buffer

	err := seeders.RunAll(db, &out, seeders.Seeder{Name: "produce", Run: seeders.SeedProduce})
	assert.ErrorContains(t, err, `seeder "produce"`)
	assert.Contains(t, out.String(), "FAILED")
}
