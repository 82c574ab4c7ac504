package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"contact-service/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:"), logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestTransaction_CommitsAndRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := Transaction(ctx, db, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(&model.ContactTag{OrganizationID: 1, Name: "vip", Color: "#000", IsActive: true}).Error
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Transaction(ctx, db, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(&model.ContactTag{OrganizationID: 1, Name: "lead", Color: "#000", IsActive: true}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&model.ContactTag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransaction_NestedUsesSavepoint(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := Transaction(ctx, db, func(ctx context.Context, tx *gorm.DB) error {
		if err := Conn(ctx, db).Create(&model.ContactTag{OrganizationID: 1, Name: "kept", Color: "#000", IsActive: true}).Error; err != nil {
			return err
		}
		inner := Transaction(ctx, db, func(ctx context.Context, tx *gorm.DB) error {
			if err := tx.Create(&model.ContactTag{OrganizationID: 1, Name: "dropped", Color: "#000", IsActive: true}).Error; err != nil {
				return err
			}
			return fmt.Errorf("row failed")
		})
		assert.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	var names []string
	require.NoError(t, db.Model(&model.ContactTag{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"kept"}, names)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)

	tag := model.ContactTag{OrganizationID: 1, Name: "vip", Color: "#000", IsActive: true}
	require.NoError(t, db.Create(&tag).Error)

	dup := model.ContactTag{OrganizationID: 1, Name: "vip", Color: "#000", IsActive: true}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)))
}

func TestIsNotFound(t *testing.T) {
	db := openTestDB(t)

	var c model.Contact
	err := db.First(&c, 42).Error
	assert.True(t, IsNotFound(err))
}
