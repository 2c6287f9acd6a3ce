package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"secondhand/internal/apperr"
	"secondhand/internal/images"
	"secondhand/internal/lib/sl"
	"secondhand/internal/models"
	"secondhand/internal/repository"
	"secondhand/internal/storage"
)

// ProductRepository is the persistence the product service needs.
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product, images []models.ProductImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetImage(ctx context.Context, id uuid.UUID) (*models.ProductImage, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// ProductInput is the raw form of a product as submitted.
type ProductInput struct {
	Name        string
	Description string
	Size        string
	Price       string
	Stock       string
	Category    string
}

// MaxPrice is the largest price the numeric(12,2) column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

type productFields struct {
	name, description, size, category string
	price                             decimal.Decimal
	stock                             int
}

func (in ProductInput) parse() (productFields, error) {
	f := productFields{
		name:        strings.TrimSpace(in.Name),
		description: in.Description,
		size:        strings.TrimSpace(in.Size),
		category:    strings.TrimSpace(in.Category),
	}
	var missing []string
	for _, c := range []struct{ field, value string }{
		{"name", f.name},
		{"description", strings.TrimSpace(in.Description)},
		{"size", f.size},
		{"price", strings.TrimSpace(in.Price)},
		{"stock", strings.TrimSpace(in.Stock)},
		{"category", f.category},
	} {
		if c.value == "" {
			missing = append(missing, c.field)
		}
	}
	if len(missing) > 0 {
		return f, apperr.Validation("missing required fields: " + strings.Join(missing, ", "))
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return f, apperr.Validation("price must be a number")
	}
	if price.IsNegative() {
		return f, apperr.Validation("price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return f, apperr.Validation("price must have at most 2 decimal places")
	}
	if price.GreaterThan(MaxPrice) {
		return f, apperr.Validation("price must not exceed " + MaxPrice.StringFixed(2))
	}
	stock, err := strconv.Atoi(strings.TrimSpace(in.Stock))
	if err != nil {
		return f, apperr.Validation("stock must be a whole number")
	}
	if stock < 0 {
		return f, apperr.Validation("stock must not be negative")
	}
	f.price = price
	f.stock = stock
	return f, nil
}

func (f productFields) apply(p *models.Product) {
	p.Name = f.name
	p.Description = f.description
	p.Size = f.size
	p.Price = f.price
	p.Stock = f.stock
	p.Category = f.category
}

type CreateProductRequest struct {
	ProductInput
	Images []images.Upload
}

type UpdateProductRequest struct {
	ID string
	ProductInput
	Images []images.Upload
}

// Products implements product CRUD with image handling.
type Products struct {
	repo  ProductRepository
	store storage.ObjectStore
	log   *slog.Logger
}

func NewProducts(repo ProductRepository, store storage.ObjectStore, log *slog.Logger) *Products {
	return &Products{repo: repo, store: store, log: log}
}

func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Products.List: %w", err)
	}
	return items, nil
}

func (s *Products) Get(ctx context.Context, rawID string) (*models.Product, error) {
	const op = "service.Products.Get"
	id, err := parseID(rawID, "product")
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapNotFound(err, "product not found"))
	}
	return p, nil
}

// Create validates everything, stores the files, then inserts the rows.
func (s *Products) Create(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	const op = "service.Products.Create"
	fields, err := req.parse()
	if err != nil {
		return nil, err
	}

	draft := images.NewDraft()
	defer draft.Close()
	if err := draft.AddAll(req.Images); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := s.storeAll(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &models.Product{Images: toImageRows(stored)}
	fields.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		s.discard(ctx, op, stored)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("product created", slog.String("op", op), slog.String("product_id", p.ID.String()), slog.Int("images", len(stored)))
	return p, nil
}

// Update rewrites the scalar fields and appends any new images.
func (s *Products) Update(ctx context.Context, req UpdateProductRequest) (*models.Product, error) {
	const op = "service.Products.Update"
	if strings.TrimSpace(req.ID) == "" {
		return nil, apperr.Validation("ID is required")
	}
	id, err := parseID(req.ID, "product")
	if err != nil {
		return nil, err
	}
	fields, err := req.parse()
	if err != nil {
		return nil, err
	}

	draft := images.NewDraft()
	defer draft.Close()
	if err := draft.AddAll(req.Images); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapNotFound(err, "product not found"))
	}

	stored, err := s.storeAll(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fields.apply(current)
	if err := s.repo.Update(ctx, current, toImageRows(stored)); err != nil {
		s.discard(ctx, op, stored)
		return nil, fmt.Errorf("%s: %w", op, mapNotFound(err, "product not found"))
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapNotFound(err, "product not found"))
	}
	s.log.Info("product updated", slog.String("op", op), slog.String("product_id", id.String()), slog.Int("new_images", len(stored)))
	return updated, nil
}

// Delete removes the product. Image objects are deleted first on a best
// effort basis; the row deletion is what decides success.
func (s *Products) Delete(ctx context.Context, rawID string) error {
	const op = "service.Products.Delete"
	if strings.TrimSpace(rawID) == "" {
		return apperr.Validation("ID is required")
	}
	id, err := parseID(rawID, "product")
	if err != nil {
		return err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapNotFound(err, "product not found"))
	}

	log := s.log.With(slog.String("op", op), slog.String("product_id", id.String()))
	for _, img := range p.Images {
		if err := s.store.Delete(ctx, img.StorageKey); err != nil {
			log.Warn("failed to delete image object", slog.String("key", img.StorageKey), sl.Err(err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapNotFound(err, "product not found"))
	}
	log.Info("product deleted", slog.Int("images", len(p.Images)))
	return nil
}

// DeleteImage removes one image. The object deletion is advisory as well.
func (s *Products) DeleteImage(ctx context.Context, rawID string) error {
	const op = "service.Products.DeleteImage"
	if strings.TrimSpace(rawID) == "" {
		return apperr.Validation("ID is required")
	}
	id, err := parseID(rawID, "image")
	if err != nil {
		return err
	}
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapNotFound(err, "image not found"))
	}
	if err := s.store.Delete(ctx, img.StorageKey); err != nil {
		s.log.Warn("failed to delete image object",
			slog.String("op", op), slog.String("image_id", id.String()), slog.String("key", img.StorageKey), sl.Err(err))
	}
	if err := s.repo.DeleteImage(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapNotFound(err, "image not found"))
	}
	return nil
}

func (s *Products) storeAll(ctx context.Context, draft *images.Draft) ([]storage.Object, error) {
	stored := make([]storage.Object, 0, draft.Len())
	for _, a := range draft.Attachments() {
		r, err := a.Reader()
		if err == nil {
			var obj storage.Object
			obj, err = s.store.Put(ctx, a.Filename, r)
			if err == nil {
				stored = append(stored, obj)
				continue
			}
		}
		s.discard(ctx, "service.Products.storeAll", stored)
		return nil, apperr.Storage(fmt.Errorf("store %s: %w", a.Filename, err))
	}
	return stored, nil
}

// discard removes objects written for a request that did not complete.
func (s *Products) discard(ctx context.Context, op string, objs []storage.Object) {
	for _, o := range objs {
		if err := s.store.Delete(ctx, o.Key); err != nil {
			s.log.Warn("failed to remove orphaned object", slog.String("op", op), slog.String("key", o.Key), sl.Err(err))
		}
	}
}

func toImageRows(objs []storage.Object) []models.ProductImage {
	rows := make([]models.ProductImage, 0, len(objs))
	for i, o := range objs {
		rows = append(rows, models.ProductImage{URL: o.URL, StorageKey: o.Key, Position: i})
	}
	return rows
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperr.NotFound(what + " not found")
	}
	return id, nil
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
