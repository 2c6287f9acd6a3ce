package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"secondhand/internal/models"
)

// Products stores products and their images.
type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

func imagesInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

// List returns every product, newest first, with images.
func (r *Products) List(ctx context.Context) ([]models.Product, error) {
	const op = "repository.Products.List"
	var items []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", imagesInOrder).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Get loads one product with its images.
func (r *Products) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	const op = "repository.Products.Get"
	var p models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", imagesInOrder).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &p, nil
}

// Create inserts the product and its images in one transaction.
func (r *Products) Create(ctx context.Context, p *models.Product) error {
	const op = "repository.Products.Create"
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Update writes the scalar fields of p and appends images, leaving the
// existing images alone.
func (r *Products) Update(ctx context.Context, p *models.Product, images []models.ProductImage) error {
	const op = "repository.Products.Update"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p.UpdatedAt = time.Now()
		res := tx.Model(&models.Product{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"name":        p.Name,
				"description": p.Description,
				"size":        p.Size,
				"price":       p.Price,
				"stock":       p.Stock,
				"category":    p.Category,
				"updated_at":  p.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var next int
		err := tx.Model(&models.ProductImage{}).
			Where("product_id = ?", p.ID).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&next).Error
		if err != nil {
			return err
		}
		for i := range images {
			images[i].ProductID = p.ID
			images[i].Position = next + i
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete removes the product and all its image rows.
func (r *Products) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "repository.Products.Delete"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Products) GetImage(ctx context.Context, id uuid.UUID) (*models.ProductImage, error) {
	const op = "repository.Products.GetImage"
	var img models.ProductImage
	if err := r.db.WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return &img, nil
}

func (r *Products) DeleteImage(ctx context.Context, id uuid.UUID) error {
	const op = "repository.Products.DeleteImage"
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductImage{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
