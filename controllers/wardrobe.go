package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"wardrobewiz/models"
	"wardrobewiz/store"
	"wardrobewiz/wardrobe"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type WardrobeController struct {
	Service *wardrobe.Service
	URLs    *URLResolver
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {
	g.POST("/items", controller.UploadItem)
	g.POST("/items/batch", controller.UploadBatch)
	g.GET("/items", controller.ListItems)
	g.GET("/items/:itemId", controller.GetItem)
	g.DELETE("/items/:itemId", controller.DeleteItem)
}

// readUpload reads at most limit+1 bytes so oversized files are rejected by
// the service without buffering all of them.
func readUpload(fh *multipart.FileHeader, limit int64) (wardrobe.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return wardrobe.Upload{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return wardrobe.Upload{}, err
	}
	return wardrobe.Upload{Filename: fh.Filename, Data: data}, nil
}

func (controller *WardrobeController) UploadItem(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Image file is required"})
	}
	upload, err := readUpload(fh, controller.Service.Limits.MaxImageBytes)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read the uploaded image"})
	}

	item, err := controller.Service.UploadItem(c.Request().Context(), currentSession(c), upload)
	if err != nil {
		return respondError(c, err)
	}
	out := controller.URLs.ItemsOut(c.Request().Context(), []models.WardrobeItem{*item})
	return c.JSON(http.StatusCreated, out[0])
}

func (controller *WardrobeController) UploadBatch(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Multipart form with images is required"})
	}
	files := form.File["images"]
	if len(files) == 0 || len(files) > controller.Service.Limits.MaxBatchSize {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Upload between 1 and %d images", controller.Service.Limits.MaxBatchSize)})
	}
	uploads := make([]wardrobe.Upload, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh, controller.Service.Limits.MaxImageBytes)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read " + fh.Filename})
		}
		uploads = append(uploads, upload)
	}

	ctx := c.Request().Context()
	result, err := controller.Service.UploadBatch(ctx, currentSession(c), uploads)
	if err != nil && !errors.Is(err, wardrobe.ErrBatchFailed) {
		return respondError(c, err)
	}

	items := make([]models.WardrobeItem, len(result.Items))
	for i, item := range result.Items {
		items[i] = *item
	}
	out := models.BatchUploadOut{
		Items:  controller.URLs.ItemsOut(ctx, items),
		Failed: []models.BatchFailureOut{},
	}
	for _, failure := range result.Failures {
		out.Failed = append(out.Failed, models.BatchFailureOut{
			Index:    failure.Index,
			Filename: failure.Filename,
			Error:    errorMessage(failure.Err),
		})
	}
	if err != nil {
		log.Warn().Err(err).Int("failed", len(result.Failures)).Msg("batch upload partially failed")
		out.Error = wardrobe.ErrBatchFailed.Error()
		return c.JSON(http.StatusMultiStatus, out)
	}
	return c.JSON(http.StatusCreated, out)
}

func (controller *WardrobeController) ListItems(c echo.Context) error {
	var query models.WardrobeListQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query"})
	}
	if err := c.Validate(query); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	items, err := controller.Service.ListItems(c.Request().Context(), currentSession(c), store.ItemQuery{
		Category: models.Category(query.Category),
		Limit:    query.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": controller.URLs.ItemsOut(c.Request().Context(), items)})
}

func (controller *WardrobeController) GetItem(c echo.Context) error {
	itemId, err := pathID(c, "itemId")
	if err != nil {
		return echo.ErrBadRequest
	}
	item, err := controller.Service.GetItem(c.Request().Context(), currentSession(c), itemId)
	if err != nil {
		return respondError(c, err)
	}
	out := controller.URLs.ItemsOut(c.Request().Context(), []models.WardrobeItem{*item})
	return c.JSON(http.StatusOK, out[0])
}

func (controller *WardrobeController) DeleteItem(c echo.Context) error {
	itemId, err := pathID(c, "itemId")
	if err != nil {
		return echo.ErrBadRequest
	}
	if err := controller.Service.DeleteItem(c.Request().Context(), currentSession(c), itemId); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
