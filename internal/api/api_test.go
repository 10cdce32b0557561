package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realestate/server/internal/auth"
	"realestate/server/internal/catalog"
	"realestate/server/internal/database"
	"realestate/server/internal/models"
	"realestate/server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	catalog *catalog.Service
	tokens  *auth.TokenManager
	admin   *models.User
	viewer  *models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	files, err := storage.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	tokens := auth.NewTokenManager(testSecret, time.Hour, 7*24*time.Hour)
	authSvc := auth.NewService(db, tokens, logger)
	catalogSvc := catalog.NewService(db, files, nil, logger)

	ctx := context.Background()
	_, err = authSvc.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	admin, err := db.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	viewer, err := authSvc.Register(ctx, models.RegisterRequest{Username: "viewer", Password: "secret"})
	require.NoError(t, err)

	h := NewHandler(Options{
		Catalog:       catalogSvc,
		Auth:          authSvc,
		Files:         files,
		DB:            db,
		PublicBaseURL: "http://api.test",
		Logger:        logger,
	})

	return &testServer{
		router:  NewRouter(h, []string{"http://localhost:3000"}),
		db:      db,
		catalog: catalogSvc,
		tokens:  tokens,
		admin:   admin,
		viewer:  viewer,
	}
}

func (s *testServer) token(t *testing.T, user *models.User, typ auth.TokenType) string {
	t.Helper()
	token, err := s.tokens.Issue(user, typ)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHomeAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Real Estate API is running", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(t, http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["ok"])
}

func TestCreateCompanyThenDuplicate(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)

	payload := map[string]any{"slug": "acme", "name": "Acme", "contact_info": `{"phone":"123"}`}
	w := s.do(t, http.MethodPost, "/api/companies", payload, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "acme", data["slug"])
	assert.Equal(t, map[string]any{"phone": "123"}, data["contact_info"])

	w = s.do(t, http.MethodPost, "/api/companies", payload, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, decode(t, w)["ok"])
}

func TestCompanyDetailEmbedsProjects(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/companies", map[string]any{"slug": "acme", "name": "Acme"}, admin).Code)

	w := s.do(t, http.MethodGet, "/api/companies/acme", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["projects"])

	w = s.do(t, http.MethodGet, "/api/companies/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]any{"slug": "acme", "name": "Acme"}

	w := s.do(t, http.MethodPost, "/api/companies", payload, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/companies", payload, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/companies", payload, s.token(t, s.viewer, auth.TokenAccess))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admins only", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/companies", payload, s.token(t, s.admin, auth.TokenRefresh))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := auth.NewTokenManager(testSecret, -time.Minute, time.Hour).Issue(s.admin, auth.TokenAccess)
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/api/companies", payload, expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token expired", decode(t, w)["error"])
}

func TestLoginRefreshVerify(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"username": "admin"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"username": "admin", "password": "admin123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	access := body["access_token"].(string)
	refresh := body["refresh_token"].(string)
	assert.Equal(t, "admin", body["user"].(map[string]any)["role"])

	// An access token is not accepted where a refresh token is expected
	w = s.do(t, http.MethodPost, "/api/auth/refresh", nil, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token type", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["access_token"])

	w = s.do(t, http.MethodGet, "/api/auth/verify", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", decode(t, w)["user"].(map[string]any)["username"])

	w = s.do(t, http.MethodPost, "/api/auth/logout", nil, access)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)

	w := s.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "bob", "password": "pw"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "user", decode(t, w)["role"])

	w = s.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "bob", "password": "pw"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "eve", "password": "pw", "role": "root"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "eve", "password": "pw"}, s.token(t, s.viewer, auth.TokenAccess))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectFeaturesRoundTrip(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/companies", map[string]any{"slug": "acme", "name": "Acme"}, admin).Code)

	w := s.do(t, http.MethodPost, "/api/projects", map[string]any{
		"company_slug": "acme",
		"slug":         "tower",
		"title":        "Tower",
		"features":     []string{"pool", "gym"},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["data"].(map[string]any)["id"].(float64)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", int(id)), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, []any{"pool", "gym"}, data["features"])
	assert.Equal(t, []any{}, data["images"])
	assert.Equal(t, "active", data["status"])
	assert.Equal(t, "acme", data["company_slug"])

	w = s.do(t, http.MethodPost, "/api/projects", map[string]any{
		"company_slug": "acme", "slug": "bad", "title": "Bad", "features": "not json",
	}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/projects?company_slug=ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUnitsPagination(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.catalog.CreateCompany(ctx, models.CompanyCreateRequest{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	project, err := s.catalog.CreateProject(ctx, models.ProjectCreateRequest{CompanySlug: "acme", Slug: "tower", Title: "Tower"}, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.catalog.CreateUnit(ctx, models.UnitCreateRequest{
			ProjectID: project.ID, Code: models.LooseString(fmt.Sprintf("A%d", i)), Sqm: 100.5, PricePerSqm: 1000, Floor: "1",
		}, nil, nil)
		require.NoError(t, err)
	}

	w := s.do(t, http.MethodGet, "/api/units?limit=1000&page=0", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(50), pagination["limit"])
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(3), pagination["total"])

	units := body["data"].([]any)
	require.Len(t, units, 3)
	assert.Equal(t, float64(100500), units[0].(map[string]any)["total_price"])

	w = s.do(t, http.MethodGet, "/api/units?limit=2&page=2", nil, "")
	body = decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(3), body["pagination"].(map[string]any)["total"])

	w = s.do(t, http.MethodGet, "/api/units?max_price=1000", nil, "")
	body = decode(t, w)
	assert.Len(t, body["data"], 0)
	assert.Equal(t, float64(0), body["pagination"].(map[string]any)["total"])
}

func TestUnitCRUD(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)
	ctx := context.Background()

	_, err := s.catalog.CreateCompany(ctx, models.CompanyCreateRequest{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	project, err := s.catalog.CreateProject(ctx, models.ProjectCreateRequest{CompanySlug: "acme", Slug: "tower", Title: "Tower"}, nil)
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/units", map[string]any{
		"project_id": project.ID, "code": "A1", "sqm": 0, "price_per_sqm": 1000, "floor": "1",
	}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/units", map[string]any{
		"project_id": 9999, "code": "A1", "sqm": 50, "price_per_sqm": 1000, "floor": "1",
	}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/units", map[string]any{
		"project_id": project.ID, "code": "A1", "sqm": 50, "price_per_sqm": 1000, "floor": 3,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "3", data["floor"])
	assert.Equal(t, "available", data["status"])
	id := int(data["id"].(float64))

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/units/%d", id), map[string]any{"status": "sold"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sold", decode(t, w)["data"].(map[string]any)["status"])

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/units/%d", id), nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/units/%d", id), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartBody(t *testing.T, fields map[string]string, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range names {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadAndServe(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)

	body, contentType := multipartBody(t, nil, "file", "logo one.png")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	filename := decode(t, w)["filename"].(string)
	assert.Equal(t, "logo_one.png", filename)

	w = s.do(t, http.MethodGet, "/api/uploads/"+filename, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image-bytes", w.Body.String())

	w = s.do(t, http.MethodGet, "/api/uploads/missing.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, contentType = multipartBody(t, nil, "file", "script.exe")
	req = httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProjectMultipart(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)
	_, err := s.catalog.CreateCompany(context.Background(), models.CompanyCreateRequest{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	body, contentType := multipartBody(t, map[string]string{
		"company_slug": "acme",
		"slug":         "tower",
		"title":        "Tower",
		"features":     `["pool"]`,
		"order":        "",
		"latitude":     " ",
		"longitude":    "",
	}, "images", "a.jpg", "a.jpg")
	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, []any{"a.jpg", "a_1.jpg"}, data["images"])
	assert.Equal(t, []any{"pool"}, data["features"])
	assert.Nil(t, data["order"])
	assert.Nil(t, data["latitude"])
	assert.Nil(t, data["longitude"])
	urls := data["image_urls"].([]any)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasPrefix(urls[0].(string), "http://api.test/api/uploads/"))
}

func TestUploadEndpointsReturnSavedNames(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)
	ctx := context.Background()

	_, err := s.catalog.CreateCompany(ctx, models.CompanyCreateRequest{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	project, err := s.catalog.CreateProject(ctx, models.ProjectCreateRequest{CompanySlug: "acme", Slug: "tower", Title: "Tower"}, nil)
	require.NoError(t, err)
	unit, err := s.catalog.CreateUnit(ctx, models.UnitCreateRequest{ProjectID: project.ID, Code: "A1", Sqm: 10, PricePerSqm: 10, Floor: "1"}, nil, nil)
	require.NoError(t, err)

	upload := func(path, field string, names ...string) map[string]any {
		body, contentType := multipartBody(t, nil, field, names...)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+admin)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode(t, w)
	}

	resp := upload(fmt.Sprintf("/api/projects/%d/upload", project.ID), "images", "front.jpg", "front.jpg")
	assert.Equal(t, []any{"front.jpg", "front_1.jpg"}, resp["data"])
	assert.Equal(t, []any{"front.jpg", "front_1.jpg"}, resp["project"].(map[string]any)["images"])

	resp = upload(fmt.Sprintf("/api/units/%d/upload", unit.ID), "floor_plan", "plan.png")
	assert.Equal(t, []any{"plan.png"}, resp["data"])
	assert.Equal(t, "plan.png", resp["unit"].(map[string]any)["floor_plan"])
}

func TestDeleteCompanyCascades(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, s.admin, auth.TokenAccess)
	ctx := context.Background()

	company, err := s.catalog.CreateCompany(ctx, models.CompanyCreateRequest{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	project, err := s.catalog.CreateProject(ctx, models.ProjectCreateRequest{CompanySlug: "acme", Slug: "tower", Title: "Tower"}, nil)
	require.NoError(t, err)
	unit, err := s.catalog.CreateUnit(ctx, models.UnitCreateRequest{ProjectID: project.ID, Code: "A1", Sqm: 10, PricePerSqm: 10, Floor: "1"}, nil, nil)
	require.NoError(t, err)

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/companies/%d", company.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Company deleted successfully", decode(t, w)["message"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, fmt.Sprintf("/api/units/%d", unit.ID), nil, "").Code)
}
