package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"secondhand/internal/images"
	"secondhand/internal/service"
)

// productForm is the multipart body of POST and PUT /api/products.
type productForm struct {
	ID          string `form:"id"`
	Name        string `form:"name"`
	Description string `form:"description"`
	Size        string `form:"size"`
	Price       string `form:"price"`
	Stock       string `form:"stock"`
	Category    string `form:"category"`
}

func (f productForm) input() service.ProductInput {
	return service.ProductInput{
		Name:        f.Name,
		Description: f.Description,
		Size:        f.Size,
		Price:       f.Price,
		Stock:       f.Stock,
		Category:    f.Category,
	}
}

// productsAPI dispatches /api/products by method.
func (h *Handler) productsAPI(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.getProducts(c)
	case http.MethodPost:
		h.createProduct(c)
	case http.MethodPut:
		h.updateProduct(c)
	case http.MethodDelete:
		h.deleteProduct(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

func (h *Handler) getProducts(c *gin.Context) {
	const op = "handlers.getProducts"
	log := h.opLog(c, op)

	if id := c.Query("id"); id != "" {
		p, err := h.products.Get(c.Request.Context(), id)
		if err != nil {
			failJSON(c, log.With(slog.String("product_id", id)), err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": p})
		return
	}

	items, err := h.products.List(c.Request.Context())
	if err != nil {
		failJSON(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

func (h *Handler) createProduct(c *gin.Context) {
	const op = "handlers.createProduct"
	log := h.opLog(c, op)

	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug("failed to bind product form", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form body"})
		return
	}
	uploads, err := formImages(c)
	if err != nil {
		log.Debug("failed to read multipart form", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form body"})
		return
	}

	p, err := h.products.Create(c.Request.Context(), service.CreateProductRequest{
		ProductInput: form.input(),
		Images:       uploads,
	})
	if err != nil {
		failJSON(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *Handler) updateProduct(c *gin.Context) {
	const op = "handlers.updateProduct"
	log := h.opLog(c, op)

	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug("failed to bind product form", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form body"})
		return
	}
	if form.ID == "" {
		form.ID = c.Query("id")
	}
	uploads, err := formImages(c)
	if err != nil {
		log.Debug("failed to read multipart form", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form body"})
		return
	}

	p, err := h.products.Update(c.Request.Context(), service.UpdateProductRequest{
		ID:           form.ID,
		ProductInput: form.input(),
		Images:       uploads,
	})
	if err != nil {
		failJSON(c, log.With(slog.String("product_id", form.ID)), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	const op = "handlers.deleteProduct"
	id := c.Query("id")
	if id == "" {
		id = c.PostForm("id")
	}
	log := h.opLog(c, op).With(slog.String("product_id", id))

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		failJSON(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteProductImage(c *gin.Context) {
	const op = "handlers.deleteProductImage"
	id := c.Query("id")
	log := h.opLog(c, op).With(slog.String("image_id", id))

	if err := h.products.DeleteImage(c.Request.Context(), id); err != nil {
		failJSON(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}

// formImages collects the files sent as images[] (or images). A body that
// is not multipart carries no files.
func formImages(c *gin.Context) ([]images.Upload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	files := form.File["images[]"]
	if len(files) == 0 {
		files = form.File["images"]
	}
	return images.FromFileHeaders(files), nil
}

func (h *Handler) adminProducts(c *gin.Context) {
	const op = "handlers.adminProducts"
	items, err := h.products.List(c.Request.Context())
	if err != nil {
		failHTML(c, h.opLog(c, op), err, "products.tmpl", nil)
		return
	}
	c.HTML(http.StatusOK, "products.tmpl", withUser(c, ViewData{"Items": items}))
}

func (h *Handler) adminProductNew(c *gin.Context) {
	c.HTML(http.StatusOK, "product_form.tmpl", withUser(c, ViewData{"Mode": "create"}))
}

func (h *Handler) adminProductEdit(c *gin.Context) {
	const op = "handlers.adminProductEdit"
	id := strings.TrimSpace(c.Query("id"))
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		failHTML(c, h.opLog(c, op).With(slog.String("product_id", id)), err, "product_form.tmpl", ViewData{"Mode": "edit"})
		return
	}
	c.HTML(http.StatusOK, "product_form.tmpl", withUser(c, ViewData{"Mode": "edit", "Item": p}))
}
