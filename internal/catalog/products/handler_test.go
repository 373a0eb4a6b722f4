package products_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/rbac"
	"github.com/stockline-erp/stockline/internal/shared"
	"github.com/stockline-erp/stockline/internal/view"
)

type stubLoader struct{}

func (stubLoader) LoadActor(_ context.Context, userID int64) (*shared.Actor, error) {
	return &shared.Actor{ID: userID, Operational: true, LocationIDs: []int64{1}}, nil
}

type searchRepo struct {
	results []products.SearchResult
}

func (r *searchRepo) List(_ context.Context, _ products.ListFilters) ([]products.Product, int, error) {
	return nil, 0, nil
}
func (r *searchRepo) Get(_ context.Context, _ int64) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}
func (r *searchRepo) GetBySKU(_ context.Context, _ string) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}
func (r *searchRepo) Exists(_ context.Context, _ int64) (bool, error) { return false, nil }
func (r *searchRepo) Search(_ context.Context, _ string, _ int) ([]products.SearchResult, error) {
	return r.results, nil
}
func (r *searchRepo) UpsertFromWoo(_ context.Context, _ products.Product) error  { return nil }
func (r *searchRepo) SetEAN(_ context.Context, _ int64, _ string) error          { return nil }
func (r *searchRepo) Suppliers(_ context.Context, _ int64) ([]products.ProductSupplier, error) {
	return nil, nil
}
func (r *searchRepo) SaveSupplier(_ context.Context, _ products.ProductSupplier) error { return nil }
func (r *searchRepo) RemoveSupplier(_ context.Context, _, _ int64) error               { return nil }
func (r *searchRepo) ListSuppliers(_ context.Context) ([]products.Supplier, error)     { return nil, nil }

func newRootRouter(t *testing.T, repo products.Repository) (*chi.Mux, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := products.NewHandler(logger, products.NewService(repo), templates, csrfManager, rbac.Middleware{Loader: stubLoader{}, Logger: logger})

	r := chi.NewRouter()
	r.Group(handler.MountSKURoutes)
	return r, sessionManager
}

func loggedInRequest(t *testing.T, sm *shared.SessionManager, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("7")
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestSearchMountedAtRootPath(t *testing.T) {
	repo := &searchRepo{results: []products.SearchResult{
		{ID: 3, SKU: "KB-01", Name: "Keyboard", Price: 120},
	}}
	router, sm := newRootRouter(t, repo)

	req := loggedInRequest(t, sm, http.MethodGet, "/products/search?q=key")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var results []products.SearchResult
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &results))
	require.Len(t, results, 1)
	require.Equal(t, "KB-01", results[0].SKU)
}

func TestSearchRequiresLogin(t *testing.T) {
	router, sm := newRootRouter(t, &searchRepo{})

	req := httptest.NewRequest(http.MethodGet, "/products/search?q=key", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusSeeOther, res.Code)
}
