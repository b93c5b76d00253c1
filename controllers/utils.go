package controllers

import (
	"fmt"
	"strconv"
	"time"

	"wardrobewiz/models"
	"wardrobewiz/store"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	accessTokenTTL   = 72 * time.Hour
	refreshTokenTTL  = 360 * 24 * time.Hour
	refreshTokenType = "refresh"
)

func UIntToStr(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

// optionalString is nil for an empty form value.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func GenerateUserToken(user *models.UserAccount, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": UIntToStr(user.ID),
		"ver": user.TokenVersion,
		"exp": time.Now().Add(accessTokenTTL).Unix(),
		"iat": time.Now().Unix(),
	})
	return token.SignedString(secret)
}

func GenerateRefreshToken(user *models.UserAccount, secret []byte) (string, error) {
	refreshToken := jwt.New(jwt.SigningMethodHS256)
	rtClaims := refreshToken.Claims.(jwt.MapClaims)
	rtClaims["sub"] = UIntToStr(user.ID)
	rtClaims["ver"] = user.TokenVersion
	rtClaims["typ"] = refreshTokenType
	rtClaims["exp"] = time.Now().Add(refreshTokenTTL).Unix()
	return refreshToken.SignedString(secret)
}

func parseRefreshToken(raw string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid refresh token")
	}
	if claims["typ"] != refreshTokenType {
		return nil, fmt.Errorf("not a refresh token")
	}
	return claims, nil
}

func claimUserID(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return 0, fmt.Errorf("missing sub claim")
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sub claim: %w", err)
	}
	if id < 1 {
		return 0, fmt.Errorf("sub claim is %d", id)
	}
	return uint(id), nil
}

// claimVersion reads "ver", which decodes as a JSON number.
func claimVersion(claims jwt.MapClaims) uint {
	switch v := claims["ver"].(type) {
	case float64:
		return uint(v)
	case uint:
		return v
	default:
		return 0
	}
}

func currentSession(c echo.Context) store.Session {
	session, _ := c.Get("session").(store.Session)
	return session
}

func pathID(c echo.Context, name string) (uint, error) {
	var id uint
	err := echo.PathParamsBinder(c).Uint(name, &id).BindError()
	return id, err
}
