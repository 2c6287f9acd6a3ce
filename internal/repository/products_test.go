package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand/internal/models"
)

func newProduct(name string) *models.Product {
	return &models.Product{
		Name:        name,
		Description: "Bagus\\nMasih baru",
		Size:        "M",
		Price:       decimal.NewFromInt(50000),
		Stock:       3,
		Category:    "Jaket",
	}
}

func TestProducts_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewProducts(getTestDB(t))

	p := newProduct("Jaket")
	p.Images = []models.ProductImage{
		{URL: "/uploads/1-a.png", StorageKey: "1-a.png"},
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jaket", got.Name)
	assert.Equal(t, "Bagus\\nMasih baru", got.Description)
	assert.True(t, decimal.NewFromInt(50000).Equal(got.Price))
	require.Len(t, got.Images, 1)
	assert.Equal(t, "1-a.png", got.Images[0].StorageKey)

	got.Name = "Jaket Denim"
	got.Stock = 1
	err = repo.Update(ctx, got, []models.ProductImage{{URL: "/uploads/2-b.png", StorageKey: "2-b.png"}})
	require.NoError(t, err)

	updated, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jaket Denim", updated.Name)
	assert.Equal(t, 1, updated.Stock)
	require.Len(t, updated.Images, 2)
	assert.Equal(t, "1-a.png", updated.Images[0].StorageKey)
	assert.Equal(t, "2-b.png", updated.Images[1].StorageKey)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeleteImage(ctx, updated.Images[0].ID))
	_, err = repo.GetImage(ctx, updated.Images[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var left int64
	require.NoError(t, repo.db.Model(&models.ProductImage{}).Where("product_id = ?", p.ID).Count(&left).Error)
	assert.Zero(t, left)
}

func TestProducts_MissingRows(t *testing.T) {
	ctx := context.Background()
	repo := NewProducts(getTestDB(t))

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Update(ctx, &models.Product{Base: models.Base{ID: uuid.New()}}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteImage(ctx, uuid.New()), ErrNotFound)
}
