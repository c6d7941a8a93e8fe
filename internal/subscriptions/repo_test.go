package subscriptions

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

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/pagination"
)

func setupSubscriptionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	customers := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  deleted INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  published INTEGER NOT NULL DEFAULT 1,
  deleted INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	subscriptions := `
CREATE TABLE IF NOT EXISTS back_in_stock_subscriptions (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (customer_id, product_id, store_id)
);`
	require.NoError(t, db.Exec(customers).Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(subscriptions).Error)
	return db
}

func newCustomer(t *testing.T, db *gorm.DB, email string, active bool) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		ID:       uuid.New(),
		Email:    email,
		Username: email,
		Active:   active,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func newProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:   uuid.New(),
		Name: name,
		SKU:  name + "-sku",
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newSubscription(t *testing.T, db *gorm.DB, customer *models.Customer, product *models.Product, storeID uuid.UUID, created time.Time) *models.BackInStockSubscription {
	t.Helper()

	sub := &models.BackInStockSubscription{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		ProductID:  product.ID,
		StoreID:    storeID,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestRepositoryFindActive(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	customer := newCustomer(t, db, "finder@example.com", true)
	product := newProduct(t, db, "widget")
	storeID := uuid.New()

	now := time.Now().UTC()
	newSubscription(t, db, customer, product, storeID, now.Add(-time.Hour))
	latest := newSubscription(t, db, customer, product, uuid.Nil, now)

	found, err := repo.FindActive(context.Background(), customer.ID, product.ID, uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, latest.ID, found.ID)

	missing, err := repo.FindActive(context.Background(), customer.ID, uuid.New(), uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryGetByID_NilID(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	sub, err := repo.GetByID(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestRepositoryDeleteByIDs(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	customer := newCustomer(t, db, "purge@example.com", true)
	productA := newProduct(t, db, "alpha")
	productB := newProduct(t, db, "beta")

	now := time.Now().UTC()
	subA := newSubscription(t, db, customer, productA, uuid.Nil, now)
	subB := newSubscription(t, db, customer, productB, uuid.Nil, now)

	deleted, err := repo.DeleteByIDs(context.Background(), []uuid.UUID{subA.ID, subB.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.GetByID(context.Background(), subA.ID)
	require.NoError(t, err)
	assert.Nil(t, remaining)

	none, err := repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestRepositoryListByCustomer_pagination(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	customer := newCustomer(t, db, "pager@example.com", true)
	productA := newProduct(t, db, "older")
	productB := newProduct(t, db, "newer")

	now := time.Now().UTC()
	newSubscription(t, db, customer, productA, uuid.Nil, now.Add(-time.Hour))
	newSubscription(t, db, customer, productB, uuid.Nil, now)

	rows, cursor, err := repo.ListByCustomer(context.Background(), ListByCustomerParams{
		CustomerID: customer.ID,
		Limit:      1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, cursor)
	assert.Equal(t, "newer", rows[0].ProductName)

	second, next, err := repo.ListByCustomer(context.Background(), ListByCustomerParams{
		CustomerID: customer.ID,
		Limit:      1,
		Cursor:     cursor,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "older", second[0].ProductName)
	assert.Nil(t, next)
}

func TestRepositoryListByCustomer_excludesDeletedProducts(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	customer := newCustomer(t, db, "catalog@example.com", true)
	live := newProduct(t, db, "live")
	gone := newProduct(t, db, "gone")
	require.NoError(t, db.Model(gone).Update("deleted", true).Error)

	now := time.Now().UTC()
	newSubscription(t, db, customer, live, uuid.Nil, now)
	newSubscription(t, db, customer, gone, uuid.Nil, now.Add(-time.Minute))

	rows, _, err := repo.ListByCustomer(context.Background(), ListByCustomerParams{
		CustomerID: customer.ID,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "live", rows[0].ProductName)
}

func TestRepositoryListAllByProduct_excludesInactiveCustomers(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	active := newCustomer(t, db, "active@example.com", true)
	inactive := newCustomer(t, db, "inactive@example.com", false)
	product := newProduct(t, db, "gadget")

	now := time.Now().UTC()
	newSubscription(t, db, active, product, uuid.Nil, now)
	newSubscription(t, db, inactive, product, uuid.Nil, now.Add(-time.Minute))

	rows, err := repo.ListAllByProduct(context.Background(), product.ID, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, active.ID, rows[0].CustomerID)
}

func TestRepositoryListAllByProduct_storeScoped(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	customerA := newCustomer(t, db, "store-a@example.com", true)
	customerB := newCustomer(t, db, "store-b@example.com", true)
	product := newProduct(t, db, "scoped")
	storeID := uuid.New()

	now := time.Now().UTC()
	scoped := newSubscription(t, db, customerA, product, storeID, now)
	newSubscription(t, db, customerB, product, uuid.New(), now.Add(-time.Minute))

	rows, err := repo.ListAllByProduct(context.Background(), product.ID, storeID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, scoped.ID, rows[0].ID)

	all, err := repo.ListAllByProduct(context.Background(), product.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryListByProduct_pagination(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	first := newCustomer(t, db, "first@example.com", true)
	second := newCustomer(t, db, "second@example.com", true)
	product := newProduct(t, db, "paged")

	now := time.Now().UTC()
	newSubscription(t, db, first, product, uuid.Nil, now.Add(-time.Hour))
	newSubscription(t, db, second, product, uuid.Nil, now)

	rows, cursor, err := repo.ListByProduct(context.Background(), ListByProductParams{
		ProductID: product.ID,
		Limit:     1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, cursor)
	assert.Equal(t, "second@example.com", rows[0].CustomerEmail)

	rest, next, err := repo.ListByProduct(context.Background(), ListByProductParams{
		ProductID: product.ID,
		Limit:     1,
		Cursor:    cursor,
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "first@example.com", rest[0].CustomerEmail)
	assert.Nil(t, next)
}

func TestRepositoryListByCustomer_limitNormalized(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db, nil, 0)

	customer := newCustomer(t, db, "limits@example.com", true)
	product := newProduct(t, db, "single")
	newSubscription(t, db, customer, product, uuid.Nil, time.Now().UTC())

	rows, cursor, err := repo.ListByCustomer(context.Background(), ListByCustomerParams{
		CustomerID: customer.ID,
		Limit:      0,
	})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Nil(t, cursor)
	assert.LessOrEqual(t, len(rows), pagination.NormalizeLimit(0))
}
