package integrations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/catalog/categories"
	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/integrations/woo"
	"github.com/stockline-erp/stockline/internal/shared"
	_ "github.com/stockline-erp/stockline/internal/testing/guard"
)

type fakeRepo struct {
	connections map[int64]Connection
	runs        map[int64]*SyncRun
	nextRunID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{connections: map[int64]Connection{}, runs: map[int64]*SyncRun{}, nextRunID: 1}
}

func (f *fakeRepo) ListConnections(_ context.Context, activeOnly bool) ([]Connection, error) {
	var out []Connection
	for _, c := range f.connections {
		if !activeOnly || c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetConnection(_ context.Context, id int64) (Connection, error) {
	c, ok := f.connections[id]
	if !ok {
		return Connection{}, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) CreateConnection(_ context.Context, c Connection) (Connection, error) {
	c.ID = int64(len(f.connections) + 1)
	f.connections[c.ID] = c
	return c, nil
}

func (f *fakeRepo) UpdateConnection(_ context.Context, id int64, c Connection) error {
	if _, ok := f.connections[id]; !ok {
		return shared.ErrNotFound
	}
	c.ID = id
	f.connections[id] = c
	return nil
}

func (f *fakeRepo) DeleteConnection(_ context.Context, id int64) error {
	delete(f.connections, id)
	return nil
}

func (f *fakeRepo) QueueRun(_ context.Context, connectionID int64, kind RunKind) (SyncRun, error) {
	run := SyncRun{ID: f.nextRunID, ConnectionID: connectionID, Kind: kind, Status: RunStatusQueued, QueuedAt: time.Now()}
	f.nextRunID++
	f.runs[run.ID] = &run
	return run, nil
}

func (f *fakeRepo) GetRun(_ context.Context, id int64) (SyncRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return SyncRun{}, shared.ErrNotFound
	}
	return *run, nil
}

func (f *fakeRepo) ListRuns(_ context.Context, _ *int64, _ int) ([]SyncRun, error) {
	var out []SyncRun
	for _, run := range f.runs {
		out = append(out, *run)
	}
	return out, nil
}

func (f *fakeRepo) DueRuns(_ context.Context, kind RunKind) ([]SyncRun, error) {
	var out []SyncRun
	for _, run := range f.runs {
		if run.Kind == kind && run.Status == RunStatusQueued {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkRunning(_ context.Context, id int64) error {
	run, ok := f.runs[id]
	if !ok || run.Status != RunStatusQueued {
		return shared.ErrNotFound
	}
	now := time.Now()
	run.Status = RunStatusRunning
	run.StartedAt = &now
	return nil
}

func (f *fakeRepo) MarkFinished(_ context.Context, id int64, status RunStatus, detail string) error {
	run, ok := f.runs[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	run.Status = status
	run.FinishedAt = &now
	if detail != "" {
		run.Detail = &detail
	}
	return nil
}

func (f *fakeRepo) LastSuccess(_ context.Context, connectionID int64, kind RunKind) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, run := range f.runs {
		if run.ConnectionID == connectionID && run.Kind == kind && run.Status == RunStatusSuccess && run.FinishedAt != nil {
			if run.FinishedAt.After(latest) {
				latest = *run.FinishedAt
				found = true
			}
		}
	}
	return latest, found, nil
}

type fakeProducts struct {
	upserted []products.Product
}

func (f *fakeProducts) UpsertFromWoo(_ context.Context, p products.Product) error {
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeProducts) List(_ context.Context, _ products.ListFilters) ([]products.Product, int, error) {
	return nil, 0, nil
}
func (f *fakeProducts) Get(_ context.Context, _ int64) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}
func (f *fakeProducts) GetBySKU(_ context.Context, _ string) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}
func (f *fakeProducts) Exists(_ context.Context, _ int64) (bool, error) { return false, nil }
func (f *fakeProducts) Search(_ context.Context, _ string, _ int) ([]products.SearchResult, error) {
	return nil, nil
}
func (f *fakeProducts) SetEAN(_ context.Context, _ int64, _ string) error { return nil }
func (f *fakeProducts) Suppliers(_ context.Context, _ int64) ([]products.ProductSupplier, error) {
	return nil, nil
}
func (f *fakeProducts) SaveSupplier(_ context.Context, _ products.ProductSupplier) error {
	return nil
}
func (f *fakeProducts) RemoveSupplier(_ context.Context, _, _ int64) error { return nil }
func (f *fakeProducts) ListSuppliers(_ context.Context) ([]products.Supplier, error) {
	return nil, nil
}

type fakeCategories struct {
	upserted []categories.Category
	saved    []categories.Category
}

func (f *fakeCategories) ListAll(_ context.Context) ([]categories.Category, error) {
	return f.upserted, nil
}

func (f *fakeCategories) ListByConnection(_ context.Context, connectionID int64) ([]categories.Category, error) {
	var out []categories.Category
	for _, c := range f.upserted {
		if c.ConnectionID == connectionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) UpsertFromWoo(_ context.Context, c categories.Category) error {
	for i, existing := range f.upserted {
		if existing.ConnectionID == c.ConnectionID && existing.WooID == c.WooID {
			c.ID = existing.ID
			f.upserted[i] = c
			return nil
		}
	}
	c.ID = int64(len(f.upserted) + 1)
	f.upserted = append(f.upserted, c)
	return nil
}

func (f *fakeCategories) SaveOrdering(_ context.Context, ordered []categories.Category) error {
	f.saved = ordered
	return nil
}

type fakeClient struct {
	categories []woo.Category
	products   []woo.Product
	byID       map[int64]woo.Product
	orders     []woo.Order
	sinceSeen  time.Time
}

func (f *fakeClient) Categories(_ context.Context) ([]woo.Category, error) { return f.categories, nil }
func (f *fakeClient) Products(_ context.Context) ([]woo.Product, error)    { return f.products, nil }

func (f *fakeClient) Product(_ context.Context, id int64) (woo.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return woo.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeClient) OrdersSince(_ context.Context, since time.Time) ([]woo.Order, error) {
	f.sinceSeen = since
	return f.orders, nil
}

func intp(v int) *int { return &v }

func testService(client *fakeClient) (*Service, *fakeRepo, *fakeProducts, *fakeCategories) {
	repo := newFakeRepo()
	prods := &fakeProducts{}
	cats := &fakeCategories{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, prods, categories.NewService(cats), cats, func(Connection) PlatformClient {
		return client
	})
	return svc, repo, prods, cats
}

func activeConnection(repo *fakeRepo) Connection {
	c, _ := repo.CreateConnection(context.Background(), Connection{
		Name: "Main Store", Provider: ProviderWooCommerce,
		BaseURL: "https://shop.example.com", ConsumerKey: "ck", ConsumerSecret: "cs", IsActive: true,
	})
	return c
}

func TestProcessImportMirrorsCatalog(t *testing.T) {
	client := &fakeClient{products: []woo.Product{
		{ID: 11, SKU: "SKU-1", Name: "Widget", Price: "19.90", StockQuantity: intp(4), StockStatus: "instock", Status: "publish"},
	}}
	svc, repo, prods, _ := testService(client)
	conn := activeConnection(repo)

	run, err := svc.QueueImport(context.Background(), conn.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ProcessImport(context.Background(), run.ID))
	require.Len(t, prods.upserted, 1)
	assert.Equal(t, conn.ID, prods.upserted[0].ConnectionID)
	assert.Equal(t, int64(11), prods.upserted[0].WooID)
	assert.InDelta(t, 19.90, prods.upserted[0].Price, 0.001)

	got, _ := repo.GetRun(context.Background(), run.ID)
	assert.Equal(t, RunStatusSuccess, got.Status)

	// A second dispatch of the same run is a no-op, not a double import.
	require.NoError(t, svc.ProcessImport(context.Background(), run.ID))
	assert.Len(t, prods.upserted, 1)
}

type claimFailRepo struct {
	*fakeRepo
	claimErr error
}

func (r *claimFailRepo) MarkRunning(ctx context.Context, id int64) error {
	if r.claimErr != nil {
		return r.claimErr
	}
	return r.fakeRepo.MarkRunning(ctx, id)
}

func TestProcessImportPropagatesTransientClaimFailure(t *testing.T) {
	client := &fakeClient{products: []woo.Product{
		{ID: 11, SKU: "SKU-1", Name: "Widget", StockStatus: "instock"},
	}}
	base := newFakeRepo()
	repo := &claimFailRepo{fakeRepo: base, claimErr: errors.New("connection refused")}
	prods := &fakeProducts{}
	cats := &fakeCategories{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, prods, categories.NewService(cats), cats, func(Connection) PlatformClient {
		return client
	})
	conn := activeConnection(base)

	run, err := svc.QueueImport(context.Background(), conn.ID)
	require.NoError(t, err)

	// A DB hiccup while claiming must surface so the task is retried,
	// not be mistaken for an already-claimed run.
	err = svc.ProcessImport(context.Background(), run.ID)
	require.Error(t, err)
	assert.Empty(t, prods.upserted)

	got, _ := base.GetRun(context.Background(), run.ID)
	assert.Equal(t, RunStatusQueued, got.Status)

	repo.claimErr = nil
	require.NoError(t, svc.ProcessImport(context.Background(), run.ID))
	assert.Len(t, prods.upserted, 1)
}

func TestSyncCategoriesLinksKnownParents(t *testing.T) {
	client := &fakeClient{categories: []woo.Category{
		{ID: 1, Name: "Root", Slug: "root", MenuOrder: intp(1)},
		{ID: 2, ParentID: 1, Name: "Child", Slug: "child"},
	}}
	svc, repo, _, cats := testService(client)
	activeConnection(repo)

	require.NoError(t, svc.SyncCategories(context.Background()))
	require.Len(t, cats.upserted, 2)
	assert.Nil(t, cats.upserted[0].ParentID)
	require.NotNil(t, cats.upserted[1].ParentID)
	assert.Equal(t, cats.upserted[0].ID, *cats.upserted[1].ParentID)
	assert.NotEmpty(t, cats.saved)
}

func TestSyncOrdersUsesCatchupWindowOnFirstRun(t *testing.T) {
	client := &fakeClient{
		orders: []woo.Order{{ID: 100, LineItems: []woo.OrderLine{{ProductID: 11, Quantity: 2}}}},
		byID:   map[int64]woo.Product{11: {ID: 11, SKU: "SKU-1", Name: "Widget", StockStatus: "instock"}},
	}
	svc, repo, prods, _ := testService(client)
	activeConnection(repo)

	require.NoError(t, svc.SyncOrders(context.Background()))
	assert.WithinDuration(t, time.Now().Add(-orderCatchupWindow), client.sinceSeen, time.Minute)
	require.Len(t, prods.upserted, 1)
	assert.Equal(t, int64(11), prods.upserted[0].WooID)
}

func TestSyncOrdersResumesFromLastSuccess(t *testing.T) {
	client := &fakeClient{byID: map[int64]woo.Product{}}
	svc, repo, _, _ := testService(client)
	conn := activeConnection(repo)

	require.NoError(t, svc.SyncOrders(context.Background()))
	first := client.sinceSeen

	require.NoError(t, svc.SyncOrders(context.Background()))
	assert.True(t, client.sinceSeen.After(first))

	runs, _ := repo.ListRuns(context.Background(), &conn.ID, 10)
	assert.Len(t, runs, 2)
}

func TestWebhookRejectsInactiveConnection(t *testing.T) {
	svc, repo, prods, _ := testService(&fakeClient{})
	conn, _ := repo.CreateConnection(context.Background(), Connection{
		Name: "Old", Provider: ProviderWooCommerce, BaseURL: "https://x", ConsumerKey: "k", ConsumerSecret: "s",
	})

	err := svc.HandleProductWebhook(context.Background(), conn.ID, woo.Product{ID: 1})
	assert.ErrorIs(t, err, errInactive)
	assert.Empty(t, prods.upserted)

	err = svc.HandleProductWebhook(context.Background(), 999, woo.Product{ID: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateConnectionValidation(t *testing.T) {
	svc, _, _, _ := testService(&fakeClient{})

	_, err := svc.CreateConnection(context.Background(), Connection{Provider: ProviderWooCommerce})
	assert.Error(t, err)

	_, err = svc.CreateConnection(context.Background(), Connection{
		Name: "Bad URL", Provider: ProviderWooCommerce, BaseURL: "shop.example.com", ConsumerKey: "k", ConsumerSecret: "s",
	})
	assert.Error(t, err)

	_, err = svc.CreateConnection(context.Background(), Connection{
		Name: "Store", Provider: "shopify", BaseURL: "https://x", ConsumerKey: "k", ConsumerSecret: "s",
	})
	assert.Error(t, err)
}
