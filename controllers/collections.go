package controllers

import (
	"net/http"

	"wardrobewiz/models"
	"wardrobewiz/store"
	"wardrobewiz/wardrobe"

	"github.com/labstack/echo/v4"
)

type CollectionController struct {
	Service *wardrobe.Service
	URLs    *URLResolver
}

func (controller *CollectionController) CollectionRoutes(g *echo.Group) {
	g.POST("", controller.CreateCollection)
	g.GET("", controller.ListCollections)
	g.GET("/:collectionId", controller.GetCollection)
	g.PATCH("/:collectionId", controller.UpdateCollection)
	g.DELETE("/:collectionId", controller.DeleteCollection)
	g.POST("/:collectionId/outfits", controller.GenerateOutfit)
	g.DELETE("/:collectionId/outfits/:outfitId", controller.DeleteOutfit)
}

func (controller *CollectionController) CreateCollection(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Multipart form is required"})
	}
	input := wardrobe.CollectionInput{
		Name:        optionalString(c.FormValue("name")),
		Description: optionalString(c.FormValue("description")),
		Prompt:      optionalString(c.FormValue("prompt")),
	}
	limits := controller.Service.Limits
	if len(form.File["images"]) > limits.MaxInspirationImages {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Too many inspiration images"})
	}
	for _, fh := range form.File["images"] {
		upload, err := readUpload(fh, limits.MaxImageBytes)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read " + fh.Filename})
		}
		input.Images = append(input.Images, upload)
	}

	collection, err := controller.Service.CreateCollection(c.Request().Context(), currentSession(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, controller.URLs.CollectionOut(c.Request().Context(), collection))
}

func (controller *CollectionController) ListCollections(c echo.Context) error {
	ctx := c.Request().Context()
	collections, err := controller.Service.ListCollections(ctx, currentSession(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]models.CollectionOut, len(collections))
	for i := range collections {
		out[i] = controller.URLs.CollectionOut(ctx, &collections[i])
	}
	return c.JSON(http.StatusOK, echo.Map{"collections": out})
}

func (controller *CollectionController) GetCollection(c echo.Context) error {
	collectionId, err := pathID(c, "collectionId")
	if err != nil {
		return echo.ErrBadRequest
	}
	collection, err := controller.Service.GetCollection(c.Request().Context(), currentSession(c), collectionId)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, controller.URLs.CollectionOut(c.Request().Context(), collection))
}

func (controller *CollectionController) UpdateCollection(c echo.Context) error {
	collectionId, err := pathID(c, "collectionId")
	if err != nil {
		return echo.ErrBadRequest
	}
	var req models.CollectionPatchIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	collection, err := controller.Service.UpdateCollection(c.Request().Context(), currentSession(c), collectionId, store.CollectionPatch{
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, controller.URLs.CollectionOut(c.Request().Context(), collection))
}

func (controller *CollectionController) DeleteCollection(c echo.Context) error {
	collectionId, err := pathID(c, "collectionId")
	if err != nil {
		return echo.ErrBadRequest
	}
	if err := controller.Service.DeleteCollection(c.Request().Context(), currentSession(c), collectionId); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (controller *CollectionController) GenerateOutfit(c echo.Context) error {
	collectionId, err := pathID(c, "collectionId")
	if err != nil {
		return echo.ErrBadRequest
	}
	var req models.OutfitIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	ctx := c.Request().Context()
	outfit, err := controller.Service.GenerateOutfit(ctx, currentSession(c), collectionId, req.Title, req.Occasion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, controller.URLs.OutfitsOut(ctx, []models.Outfit{*outfit})[0])
}

func (controller *CollectionController) DeleteOutfit(c echo.Context) error {
	collectionId, err := pathID(c, "collectionId")
	if err != nil {
		return echo.ErrBadRequest
	}
	outfitId, err := pathID(c, "outfitId")
	if err != nil {
		return echo.ErrBadRequest
	}
	if err := controller.Service.DeleteOutfit(c.Request().Context(), currentSession(c), collectionId, outfitId); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
