package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/glowshop/internal/service"
	"github.com/Skotchmaster/glowshop/internal/transport"
	"github.com/Skotchmaster/glowshop/pkg/logging"
)

type RatingHTTP struct {
	Svc *service.RatingService
	// UploadMaxBytes caps the CSV upload size.
	UploadMaxBytes int64
}

func (h *RatingHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.submit")

	userID, err := currentUser(c)
	if err != nil {
		l.Warn("submit_rating_error", "status", 401, "error", err)
		return errUnauthorized
	}

	var req transport.SubmitRatingRequest
	if err := bindValid(c, l, "submit_rating_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.SubmitRating(ctx, userID, service.SubmitRatingInput{
		ItemID:     req.ItemID,
		ItemType:   req.ItemType,
		Rating:     *req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		return fail(l, "submit_rating_error", err)
	}

	l.Info("submit_rating_success", "item_type", req.ItemType, "item_id", req.ItemID, "stale", res.Stale)
	return c.JSON(http.StatusOK, res)
}

func (h *RatingHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.get")

	sum, err := h.Svc.GetRating(ctx, c.Param("itemType"), c.Param("itemId"), optionalUser(c))
	if err != nil {
		return fail(l, "get_rating_error", err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *RatingHTTP) Distribution(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.distribution")

	dist, err := h.Svc.GetDistribution(ctx, c.Param("itemType"), c.Param("itemId"))
	if err != nil {
		return fail(l, "rating_distribution_error", err)
	}
	return c.JSON(http.StatusOK, dist)
}

func (h *RatingHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.upload")

	if h.UploadMaxBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.UploadMaxBytes)
	}

	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		l.Warn("upload_ratings_error", "status", 413, "limit", tooLarge.Limit)
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
	}
	if err != nil {
		l.Warn("upload_ratings_error", "status", 400, "reason", "file is required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		l.Error("upload_ratings_error", "status", 500, "reason", "cannot open upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	defer f.Close()

	n, err := h.Svc.ImportRatings(ctx, f)
	if err != nil {
		return fail(l, "upload_ratings_error", err)
	}

	l.Info("upload_ratings_success", "imported", n)
	return c.JSON(http.StatusOK, map[string]int{"imported": n})
}

func (h *RatingHTTP) Export(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.export")

	name := fmt.Sprintf("ratings-%s.csv", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().WriteHeader(http.StatusOK)

	if err := h.Svc.ExportRatings(ctx, c.Response()); err != nil {
		// headers are already sent; the truncated body is all the client gets
		l.Error("export_ratings_error", "status", 500, "error", err)
		return nil
	}
	return nil
}

func (h *RatingHTTP) Recompute(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.recompute")

	res, err := h.Svc.RecomputeAggregate(ctx, c.Param("itemType"), c.Param("itemId"))
	if err != nil {
		return fail(l, "recompute_rating_error", err)
	}

	l.Info("recompute_rating_success", "item_type", res.ItemType, "item_id", res.ItemID)
	return c.JSON(http.StatusOK, res)
}
