package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/fan-platform/config"
	"github.com/d60-Lab/fan-platform/internal/middleware"
	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/repository"
	"github.com/d60-Lab/fan-platform/internal/service"
)

type handlerFixture struct {
	db      *gorm.DB
	router  *gin.Engine
	authSvc service.AuthService
	creator *model.Creator
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Creator{}, &model.SupportLog{}, &model.Supporter{}, &model.UploadedFile{},
	))

	locks := service.NewKeyLock()
	calc := service.NewSplitCalculator(0.15)
	authSvc := service.NewAuthService(repository.NewUserRepository(db), "test-secret", time.Minute, 1000)
	creatorSvc := service.NewCreatorService(repository.NewCreatorRepository(db),
		repository.NewSupporterRepository(db), calc, locks)
	supportSvc := service.NewSupportService(db, repository.NewSupportRepository(db), locks)

	cfg := &config.Config{}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxFileSize = 10 * 1024 * 1024
	cfg.Upload.AllowedExts = []string{".jpg", ".png", ".txt"}
	fileSvc, err := service.NewFileService(repository.NewFileRepository(db),
		repository.NewCreatorRepository(db), cfg.Upload.Dir, cfg.Upload.MaxFileSize, cfg.Upload.AllowedExts)
	require.NoError(t, err)

	h := New(cfg, authSvc, creatorSvc, supportSvc, fileSvc, nil)

	router := gin.New()
	authed := router.Group("/api/v1", middleware.Auth(authSvc))
	authed.POST("/support", h.Support)
	authed.GET("/support/history", h.SupportHistory)
	authed.GET("/files", h.ListFiles)
	authed.GET("/files/stats", h.FileStats)

	owner, err := authSvc.Register(context.Background(), "owner", "password123", "")
	require.NoError(t, err)
	creator, err := creatorSvc.Create(context.Background(), owner.ID, service.CreatorCreate{
		Name: "Test Creator", CreatorFanSplit: 0.8,
	})
	require.NoError(t, err)

	return &handlerFixture{db: db, router: router, authSvc: authSvc, creator: creator}
}

func (f *handlerFixture) token(t *testing.T, username string) string {
	t.Helper()
	_, err := f.authSvc.Register(context.Background(), username, "password123", "")
	if err != nil {
		require.ErrorIs(t, err, service.ErrUsernameTaken)
	}
	token, err := f.authSvc.Login(context.Background(), username, "password123")
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) post(t *testing.T, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/support", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSupportEndpointSettles(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t, "payer")

	w := f.post(t, token, gin.H{"creator_id": f.creator.ID, "amount": 1000, "message": "gg"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			CreatorShare  float64 `json:"creator_share"`
			FanCommission float64 `json:"fan_commission"`
			PlatformFee   float64 `json:"platform_fee"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 680, resp.Data.CreatorShare, 1e-9)
	assert.InDelta(t, 170, resp.Data.FanCommission, 1e-9)
	assert.InDelta(t, 150, resp.Data.PlatformFee, 1e-9)
}

func TestSupportEndpointStatusMapping(t *testing.T) {
	f := newHandlerFixture(t)
	payerToken := f.token(t, "payer")
	ownerToken, err := f.authSvc.Login(context.Background(), "owner", "password123")
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		body  gin.H
		want  int
	}{
		{"missing token", "", gin.H{"creator_id": f.creator.ID, "amount": 100}, http.StatusUnauthorized},
		{"unknown creator", payerToken, gin.H{"creator_id": 9999, "amount": 100}, http.StatusNotFound},
		{"self support", ownerToken, gin.H{"creator_id": f.creator.ID, "amount": 100}, http.StatusForbidden},
		{"zero amount fails binding", payerToken, gin.H{"creator_id": f.creator.ID, "amount": 0}, http.StatusBadRequest},
		{"bad funding source", payerToken, gin.H{"creator_id": f.creator.ID, "amount": 100, "source": "iou"}, http.StatusBadRequest},
		{"points beyond balance", payerToken, gin.H{"creator_id": f.creator.ID, "amount": 5000, "source": "points"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.post(t, tc.token, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestSupportEndpointInactiveCreator(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t, "payer")

	require.NoError(t, f.db.Model(f.creator).Update("is_active", false).Error)

	w := f.post(t, token, gin.H{"creator_id": f.creator.ID, "amount": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestSupportHistoryEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t, "payer")

	for _, amount := range []float64{100, 200} {
		w := f.post(t, token, gin.H{"creator_id": f.creator.ID, "amount": amount})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/support/history?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Count   int `json:"count"`
			History []struct {
				CreatorName string  `json:"creator_name"`
				Amount      float64 `json:"amount"`
			} `json:"history"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Data.Count)
	for _, item := range resp.Data.History {
		assert.Equal(t, "Test Creator", item.CreatorName)
	}
}
