package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/glowshop/internal/repo"
	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/internal/transport"
	"github.com/Skotchmaster/glowshop/internal/util"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

type CatalogHTTP struct {
	Svc            *service.CatalogService
	UploadMaxBytes int64
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := pathUUID(c, l, "get_product_error", "id")
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	f := repo.ProductFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
		Offset:   offset,
		Limit:    limit,
	}
	for param, dst := range map[string]**decimal.Decimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			l.Warn("get_products_error", "status", 400, "reason", param+" is not a number", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, param+" is not a number")
		}
		*dst = &v
	}
	if raw := c.QueryParam("rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			l.Warn("get_products_error", "status", 400, "reason", "rating is not a number", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "rating is not a number")
		}
		f.MinRating = &v
	}

	total, items, err := h.Svc.ListProducts(ctx, f)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return paged(c, page, offset, limit, total, items)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := c.QueryParam("q")
	if q == "" {
		l.Warn("search_products_error", "status", 400, "reason", "q is required")
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return paged(c, page, offset, limit, total, items)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bindValid(c, l, "product_create_error", &req); err != nil {
		return err
	}

	created, err := h.Svc.CreateProduct(ctx, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := pathUUID(c, l, "product_patch_error", "id")
	if err != nil {
		return err
	}

	var req transport.PatchProductRequest
	if err := bindValid(c, l, "product_patch_error", &req); err != nil {
		return err
	}

	prod, err := h.Svc.PatchProduct(ctx, id, repo.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		return fail(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := pathUUID(c, l, "product_delete_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) BulkUpload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.bulk_upload")

	if h.UploadMaxBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.UploadMaxBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("bulk_upload_error", "status", 400, "reason", "file is required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		l.Error("bulk_upload_error", "status", 500, "reason", "cannot open upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	defer f.Close()

	n, err := h.Svc.ImportProducts(ctx, f)
	if err != nil {
		return fail(l, "bulk_upload_error", err)
	}

	l.Info("bulk_upload_success", "imported", n)
	return c.JSON(http.StatusOK, map[string]int{"imported": n})
}
