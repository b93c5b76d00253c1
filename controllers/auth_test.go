package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wardrobewiz/models"
	"wardrobewiz/services"
	"wardrobewiz/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGoogleCreatesUser(t *testing.T) {
	s := newTestServer(t)

	param := models.GoogleAuthSignIn{IdToken: "google-id-token", Platform: "ios"}
	req := test.NewJSONRequest("POST", "/auth/google", param)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.SignInOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "email@example.com", resp.Email)
	assert.True(t, resp.New)
	assert.Equal(t, "pictureurl", resp.Avatar)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	var user models.UserAccount
	s.db.First(&user, "email = ?", "email@example.com")
	assert.Equal(t, "12232", user.GoogleID)
	assert.Equal(t, models.PlatformIOS, user.Platform)

	// second sign in finds the same account
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/google", param))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.New)
	assert.Equal(t, user.ID, resp.Id)
}

func TestAuthLinksProvidersByEmail(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/firebase", models.FirebaseAuthSignIn{IdToken: "fb", Platform: "android"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.SignInOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.Id)
	assert.False(t, resp.New)

	var linked models.UserAccount
	s.db.First(&linked, user.ID)
	assert.Equal(t, []string{"google", "firebase"}, linked.Providers())
}

func TestAuthDoesNotLinkUnverifiedEmail(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	s.identity.Identity = &services.Identity{Subject: "fb-uid", Email: user.Email, EmailVerified: false}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/firebase", models.FirebaseAuthSignIn{IdToken: "fb", Platform: "android"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.SignInOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.New)
	assert.NotEqual(t, user.ID, resp.Id)

	var original models.UserAccount
	s.db.First(&original, user.ID)
	assert.Empty(t, original.FirebaseUID)
	assert.Equal(t, []string{"google"}, original.Providers())
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.identity.Err = errors.New("token expired")

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/google", models.GoogleAuthSignIn{IdToken: "x", Platform: "ios"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/google", models.GoogleAuthSignIn{IdToken: "x", Platform: "symbian"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var count int64
	s.db.Model(&models.UserAccount{}).Count(&count)
	assert.Zero(t, count)
}

func TestAuthAppleUsesProvidedName(t *testing.T) {
	s := newTestServer(t)
	s.identity.Identity = &services.Identity{Subject: "apple-sub", Email: "apple@example.com"}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/apple", models.AppleAuthRequest{
		IdentityToken:     "identity",
		AuthorizationCode: "code",
		Platform:          "ios",
		Name:              "Apple Person",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user models.UserAccount
	s.db.First(&user, "apple_id = ?", "apple-sub")
	assert.Equal(t, "Apple Person", user.Name)
	assert.Equal(t, "apple@example.com", user.Email)
}

func TestBannedUserIsBlocked(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	s.db.Model(user).Update("banned", true)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/google", models.GoogleAuthSignIn{IdToken: "x", Platform: "ios"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("GET", "/auth/me", UIntToStr(user.ID), nil))
	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("GET", "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("GET", "/auth/me", UIntToStr(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.UserMeOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, user.ID, me.Id)
	assert.Equal(t, []string{"google"}, me.Providers)
}

func TestLogoutInvalidatesTokens(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	refresh, err := GenerateRefreshToken(user, []byte(s.secret()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("POST", "/auth/logout", UIntToStr(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONAuthRequest("GET", "/auth/me", UIntToStr(user.ID), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/refresh-token", models.RefreshTokenIn{RefreshToken: refresh}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := test.NewJSONRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+test.GenerateUserTokenVersion(UIntToStr(user.ID), 1))
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")
	refresh, err := GenerateRefreshToken(user, []byte(s.secret()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/refresh-token", models.RefreshTokenIn{RefreshToken: refresh}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echo.Map
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["access_token"])
	assert.NotEmpty(t, resp["refresh_token"])

	// an access token is not accepted as a refresh token
	access, err := GenerateUserToken(user, []byte(s.secret()))
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, test.NewJSONRequest("POST", "/auth/refresh-token", models.RefreshTokenIn{RefreshToken: access}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// and a refresh token does not open authenticated routes
	req := test.NewJSONRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
