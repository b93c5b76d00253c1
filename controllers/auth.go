package controllers

import (
	"errors"
	"net/http"

	"wardrobewiz/models"
	"wardrobewiz/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AuthController struct {
	Identity services.IdentityProvider
	Secret   []byte
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/google", m.GoogleSignIn)
	g.POST("/firebase", m.FirebaseSignIn)
	g.POST("/apple", m.AppleSignIn)
	g.POST("/refresh-token", m.RefreshToken)
}

// SessionRoutes expects g to carry the jwt and user middlewares.
func (m *AuthController) SessionRoutes(g *echo.Group) {
	g.GET("/me", m.Me)
	g.POST("/logout", m.Logout)
}

func (m *AuthController) GoogleSignIn(c echo.Context) error {
	creds := new(models.GoogleAuthSignIn)
	if err := c.Bind(creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if !models.ValidatePlatformRaw(creds.Platform) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Please provide proper platform parameter"})
	}
	if err := c.Validate(creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	identity, err := m.Identity.VerifyGoogle(c.Request().Context(), creds.IdToken)
	if err != nil {
		log.Warn().Err(err).Msg("google sign in rejected")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Couldn't verify credentials"})
	}
	return m.signIn(c, identity, creds.Platform, "")
}

func (m *AuthController) FirebaseSignIn(c echo.Context) error {
	creds := new(models.FirebaseAuthSignIn)
	if err := c.Bind(creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if !models.ValidatePlatformRaw(creds.Platform) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Please provide proper platform parameter"})
	}
	if err := c.Validate(creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	identity, err := m.Identity.VerifyFirebase(c.Request().Context(), creds.IdToken)
	if err != nil {
		log.Warn().Err(err).Msg("firebase sign in rejected")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Couldn't verify credentials"})
	}
	return m.signIn(c, identity, creds.Platform, "")
}

func (m *AuthController) AppleSignIn(c echo.Context) error {
	req := new(models.AppleAuthRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if !models.ValidatePlatformRaw(req.Platform) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Please provide proper platform parameter"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	identity, err := m.Identity.VerifyApple(c.Request().Context(), req.AuthorizationCode)
	if err != nil {
		if !errors.Is(err, services.ErrIdentityRejected) {
			sentry.CaptureException(err)
		}
		log.Warn().Err(err).Msg("apple sign in rejected")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Couldn't verify credentials"})
	}
	return m.signIn(c, identity, req.Platform, req.Name)
}

func providerColumn(provider string) string {
	switch provider {
	case "apple":
		return "apple_id"
	case "firebase":
		return "firebase_uid"
	default:
		return "google_id"
	}
}

func linkProvider(user *models.UserAccount, identity *services.Identity) {
	switch identity.Provider {
	case "apple":
		user.AppleID = identity.Subject
	case "firebase":
		user.FirebaseUID = identity.Subject
	default:
		user.GoogleID = identity.Subject
	}
}

// signIn finds the user by provider subject, then by verified email, and
// creates one when neither matches.
func (m *AuthController) signIn(c echo.Context, identity *services.Identity, platform string, name string) error {
	db := c.Get("__db").(*gorm.DB)

	var user models.UserAccount
	r := db.Where(providerColumn(identity.Provider)+" = ?", identity.Subject).Limit(1).Find(&user)
	if r.Error != nil {
		sentry.CaptureException(r.Error)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}
	isNew := false
	if r.RowsAffected == 0 && identity.Email != "" && identity.EmailVerified {
		r = db.Where("email = ?", identity.Email).Limit(1).Find(&user)
		if r.Error != nil {
			sentry.CaptureException(r.Error)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
		}
	}
	if r.RowsAffected == 0 {
		isNew = true
		displayName := identity.Name
		if displayName == "" {
			displayName = name
		}
		user = models.UserAccount{
			Name:      displayName,
			Email:     identity.Email,
			AvatarURL: identity.Picture,
		}
	}
	if user.Banned {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Sorry, your access is blocked"})
	}

	linkProvider(&user, identity)
	if user.AvatarURL == "" {
		user.AvatarURL = identity.Picture
	}
	user.LastIp = c.RealIP()
	user.Platform = models.ScanPlatform(platform)
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}

	accessToken, err := GenerateUserToken(&user, m.Secret)
	if err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	refreshToken, err := GenerateRefreshToken(&user, m.Secret)
	if err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	log.Info().Uint("user_id", user.ID).Str("provider", identity.Provider).Bool("new", isNew).Msg("signed in")

	return c.JSON(http.StatusOK, models.SignInOut{
		Id:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Avatar:       user.AvatarURL,
		New:          isNew,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (m *AuthController) RefreshToken(c echo.Context) error {
	tokenReq := new(models.RefreshTokenIn)
	if err := c.Bind(tokenReq); err != nil {
		return echo.ErrBadRequest
	}
	if err := c.Validate(tokenReq); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	claims, err := parseRefreshToken(tokenReq.RefreshToken, m.Secret)
	if err != nil {
		log.Debug().Err(err).Msg("refresh token rejected")
		return unauthorized(c)
	}
	userId, err := claimUserID(claims)
	if err != nil {
		return unauthorized(c)
	}

	db := c.Get("__db").(*gorm.DB)
	var user models.UserAccount
	result := db.First(&user, userId)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return unauthorized(c)
	}
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return echo.ErrInternalServerError
	}
	if user.Banned || claimVersion(claims) != user.TokenVersion {
		return unauthorized(c)
	}

	t, err := GenerateUserToken(&user, m.Secret)
	if err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	rt, err := GenerateRefreshToken(&user, m.Secret)
	if err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  t,
		"refresh_token": rt,
	})
}

func (m *AuthController) Me(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	return c.JSON(http.StatusOK, models.UserMeOut{
		Id:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Platform:  user.Platform,
		Providers: user.Providers(),
		CreatedAt: formatTime(user.CreatedAt),
	})
}

// Logout bumps the token version, which invalidates every token issued so
// far on every device.
func (m *AuthController) Logout(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	err := db.Model(&models.UserAccount{}).Where("id = ?", user.ID).
		Update("token_version", gorm.Expr("token_version + 1")).Error
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Something went wrong"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Signed out"})
}
