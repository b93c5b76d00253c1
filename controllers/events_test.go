package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wardrobewiz/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestEventsAcceptsQueryToken(t *testing.T) {
	s := newTestServer(t)
	user := test.FakeUser(s.db, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?token="+test.GenerateUserToken(UIntToStr(user.ID)), nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
}

func TestEventsRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wardrobe/items?token="+test.GenerateUserToken("1"), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
