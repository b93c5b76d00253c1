package controllers

import (
	"context"
	"fmt"
	"net/http"

	"wardrobewiz/config"
	"wardrobewiz/models"
	"wardrobewiz/services"
	"wardrobewiz/wardrobe"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("category", models.ValidateCategory)
	return &CustomValidator{validator: v}
}

// multipart overhead on top of the raw image bytes of a full batch
const multipartSlack = 1 << 20

func SetupServer(
	db *gorm.DB,
	cfg *config.Config,
	identity services.IdentityProvider,
	awsService services.AWSServiceProvider,
	urlCache services.URLCacheServiceProvider,
	wardrobeService *wardrobe.Service,
) *echo.Echo {
	if err := awsService.InitPresignClient(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage provider")
	}

	e := echo.New()
	e.Validator = NewValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			return next(c)
		}
	})
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	secret := []byte(cfg.JWTSecret)
	jwtConfig := func(lookup string) echojwt.Config {
		return echojwt.Config{
			SigningKey:  secret,
			TokenLookup: lookup,
			ErrorHandler: func(c echo.Context, err error) error {
				return unauthorized(c)
			},
		}
	}
	authenticated := []echo.MiddlewareFunc{
		echojwt.WithConfig(jwtConfig("header:Authorization:Bearer ")),
		UserMiddleware,
	}
	// EventSource cannot set headers, so the stream also takes ?token=
	streaming := []echo.MiddlewareFunc{
		echojwt.WithConfig(jwtConfig("header:Authorization:Bearer ,query:token")),
		UserMiddleware,
	}

	urls := &URLResolver{Cache: urlCache, Storage: awsService, Bucket: wardrobeService.Bucket}

	authController := AuthController{Identity: identity, Secret: secret}
	authGroup := e.Group("/auth")
	authController.AuthRoutes(authGroup)
	authController.SessionRoutes(authGroup.Group("", authenticated...))

	eventsController := EventsController{Store: wardrobeService.Store}
	e.GET("/events", eventsController.Stream, streaming...)

	limits := wardrobeService.Limits
	bodyLimit := fmt.Sprintf("%dK", (limits.MaxImageBytes*int64(max(limits.MaxBatchSize, limits.MaxInspirationImages))+multipartSlack)/1024)

	wardrobeController := WardrobeController{Service: wardrobeService, URLs: urls}
	wardrobeGroup := e.Group("/wardrobe", append(authenticated, middleware.BodyLimit(bodyLimit))...)
	wardrobeController.WardrobeRoutes(wardrobeGroup)

	collectionController := CollectionController{Service: wardrobeService, URLs: urls}
	collectionGroup := e.Group("/collections", append(authenticated, middleware.BodyLimit(bodyLimit))...)
	collectionController.CollectionRoutes(collectionGroup)

	return e
}
