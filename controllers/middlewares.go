package controllers

import (
	"errors"
	"net/http"

	"wardrobewiz/models"
	"wardrobewiz/store"

	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UserMiddleware loads the token's user into "currentUser" and the matching
// store session into "session". Refresh tokens, banned users and tokens
// issued before the last sign out are rejected.
func UserMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return unauthorized(c)
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["typ"] == refreshTokenType {
			return unauthorized(c)
		}
		userId, err := claimUserID(claims)
		if err != nil {
			log.Warn().Err(err).Msg("token without usable subject")
			return unauthorized(c)
		}

		var currentUser models.UserAccount
		result := db.Where("id = ?", userId).Take(&currentUser)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return unauthorized(c)
		}
		if result.Error != nil {
			sentry.CaptureException(result.Error)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Something went wrong"})
		}
		if currentUser.Banned {
			return echo.NewHTTPError(http.StatusLocked)
		}
		if claimVersion(claims) != currentUser.TokenVersion {
			return unauthorized(c)
		}

		c.Set("currentUser", currentUser)
		c.Set("session", store.Session{UserID: currentUser.ID})
		return next(c)
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}
