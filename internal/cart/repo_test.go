package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.Cart{}, &models.CartItem{}))
	return conn
}

func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID, quantities ...int) *models.Cart {
	t.Helper()
	cart := &models.Cart{UserID: userID}
	require.NoError(t, db.Omit("Items").Create(cart).Error)
	for _, qty := range quantities {
		item := &models.CartItem{CartID: cart.ID, ProductID: uuid.New(), Price: 10000, Quantity: qty}
		require.NoError(t, db.Create(item).Error)
		cart.Items = append(cart.Items, *item)
	}
	return cart
}

func TestRepositoryFindByUserScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	seeded := seedCart(t, db, owner, 1, 2)
	seedCart(t, db, uuid.New(), 5)

	cart, err := repo.FindByUser(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, cart.ID)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, ItemCount(cart))

	_, err = repo.FindByUser(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryItemMutationsRespectOwnership(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()
	cart := seedCart(t, db, owner, 1)
	itemID := cart.Items[0].ID

	rows, err := repo.UpdateItemQuantity(ctx, stranger, itemID, 9)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.UpdateItemQuantity(ctx, owner, itemID, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	item, err := repo.FindItemForUser(ctx, owner, itemID)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	_, err = repo.FindItemForUser(ctx, stranger, itemID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	rows, err = repo.DeleteItem(ctx, stranger, itemID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.DeleteItem(ctx, owner, itemID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
}

func TestRepositoryIncrementAndFindByProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := seedCart(t, db, uuid.New(), 2)
	productID := cart.Items[0].ProductID

	require.NoError(t, repo.IncrementItemQuantity(ctx, cart.Items[0].ID, 3))

	item, err := repo.FindItemByProduct(ctx, cart.ID, productID)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	dup := &models.CartItem{CartID: cart.ID, ProductID: productID, Price: 1, Quantity: 1}
	assert.Error(t, repo.CreateItem(ctx, dup))
}

func TestRepositoryDeleteItemsByCart(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := seedCart(t, db, uuid.New(), 1, 1, 1)
	other := seedCart(t, db, uuid.New(), 1)

	rows, err := repo.DeleteItemsByCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rows)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", other.ID).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestRepositoryDeleteStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := seedCart(t, db, uuid.New(), 1)
	fresh := seedCart(t, db, uuid.New(), 1)
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", stale.ID).UpdateColumn("updated_at", now.Add(-48*time.Hour)).Error)
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", fresh.ID).UpdateColumn("updated_at", now).Error)

	deleted, err := repo.DeleteStale(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, stale.UserID, deleted[0].UserID)

	var carts, items int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&carts).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Count(&items).Error)
	assert.EqualValues(t, 1, carts)
	assert.EqualValues(t, 1, items)

	deleted, err = repo.DeleteStale(ctx, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
