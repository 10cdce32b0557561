package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientListsAndSendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/projects":
			assert.Equal(t, "acme", r.URL.Query().Get("company_slug"))
			w.Write([]byte(`{"ok":true,"data":[{"id":5,"slug":"tower","title":"Tower"}]}`))
		case "/api/units":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, http.MethodPost, r.Method)
			var req NewUnit
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, uint(5), req.ProjectID)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"ok":true,"data":{"id":9,"code":"A1"}}`))
		case "/api/auth/login":
			w.Write([]byte(`{"ok":true,"access_token":"tok","refresh_token":"ref"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL+"/api/", time.Second, quietLogger())
	ctx := context.Background()

	projects, err := client.Projects(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Tower", projects[0].Title)

	token, err := client.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	unit, err := client.CreateUnit(ctx, token, NewUnit{ProjectID: 5, Code: "A1", Sqm: 10, PricePerSqm: 100, Floor: "1"})
	require.NoError(t, err)
	assert.Equal(t, uint(9), unit.ID)

	assert.Equal(t, server.URL+"/api/uploads/a%20b.png", client.FileURL("a b.png"))
}

func TestClientRelaysErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/units/1":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error":"Token expired"}`))
		case "/units/2":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>bad gateway</html>`))
		case "/companies":
			w.Write([]byte(`{"ok":false,"error":"Something broke"}`))
		}
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, time.Second, quietLogger())
	ctx := context.Background()

	err := client.DeleteUnit(ctx, "tok", 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, "Token expired", apiErr.Error())

	_, err = client.Unit(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, "HTTP error: 502", err.Error())

	_, err = client.Companies(ctx)
	assert.EqualError(t, err, "Something broke")
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewCatalogClient(server.URL, time.Second, quietLogger())
	_, err := client.Companies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Request error")
}
