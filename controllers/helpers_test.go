package controllers

import (
	"os"
	"testing"
	"time"

	"wardrobewiz/config"
	"wardrobewiz/dbhelper"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/stylist"
	"wardrobewiz/test"
	"wardrobewiz/wardrobe"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	sneakersReply  = `{"name":"Sneakers","description":"White leather low tops","isWearable":true,"confidenceScore":90,"category":"shoes","colors":["white"],"styles":["casual"],"occasions":["everyday"]}`
	notWearable    = `{"name":"Coffee Mug","description":"A mug","isWearable":false,"confidenceScore":95,"category":"others","colors":[],"styles":[],"occasions":[]}`
	synthesisReply = `{"name":"Weekend Denim","description":"Relaxed denim looks","tags":["denim"],"styleGuide":"Keep it easy.","suggestedOccasions":["brunch"],"confidenceScore":0.8}`
)

type testServer struct {
	e        *echo.Echo
	db       *gorm.DB
	llm      *test.LLMProcessorMock
	storage  *test.StorageMock
	identity *test.IdentityMock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	cleaner()
	t.Cleanup(cleaner)

	llm := &test.LLMProcessorMock{Replies: map[string]string{
		stylist.KindExtract:    sneakersReply,
		stylist.KindSynthesize: synthesisReply,
	}}
	storage := test.NewStorageMock()
	identity := &test.IdentityMock{}
	service := wardrobe.NewService(
		store.New(db, services.NewMemoryChangeFeed()),
		stylist.New(llm, services.Flash25, time.Second),
		storage, "wardrobe", &test.EnqueuerMock{}, nil, wardrobe.DefaultLimits(),
	)
	cfg := &config.Config{JWTSecret: os.Getenv("JWT_SECRET")}
	e := SetupServer(db, cfg, identity, storage, test.URLCacheMock{}, service)
	return &testServer{e: e, db: db, llm: llm, storage: storage, identity: identity}
}

func (s *testServer) secret() string {
	return os.Getenv("JWT_SECRET")
}
