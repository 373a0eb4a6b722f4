package integrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stockline-erp/stockline/internal/catalog/categories"
	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/integrations/woo"
	"github.com/stockline-erp/stockline/internal/shared"
)

// orderCatchupWindow bounds the first orders sync for a connection that
// has never completed one.
const orderCatchupWindow = 24 * time.Hour

// PlatformClient is the slice of the Woo API the sync service needs.
type PlatformClient interface {
	Categories(ctx context.Context) ([]woo.Category, error)
	Products(ctx context.Context) ([]woo.Product, error)
	Product(ctx context.Context, id int64) (woo.Product, error)
	OrdersSince(ctx context.Context, since time.Time) ([]woo.Order, error)
}

// ClientFactory builds a platform client for one connection.
type ClientFactory func(Connection) PlatformClient

func DefaultClientFactory(c Connection) PlatformClient {
	return woo.NewClient(c.BaseURL, c.ConsumerKey, c.ConsumerSecret)
}

type Service struct {
	logger     *slog.Logger
	repo       Repository
	products   products.Repository
	categories *categories.Service
	catRepo    categories.Repository
	clients    ClientFactory
}

func NewService(logger *slog.Logger, repo Repository, productRepo products.Repository, categorySvc *categories.Service, categoryRepo categories.Repository, clients ClientFactory) *Service {
	if clients == nil {
		clients = DefaultClientFactory
	}
	return &Service{
		logger:     logger,
		repo:       repo,
		products:   productRepo,
		categories: categorySvc,
		catRepo:    categoryRepo,
		clients:    clients,
	}
}

func (s *Service) ListConnections(ctx context.Context, activeOnly bool) ([]Connection, error) {
	return s.repo.ListConnections(ctx, activeOnly)
}

func (s *Service) GetConnection(ctx context.Context, id int64) (Connection, error) {
	return s.repo.GetConnection(ctx, id)
}

func (s *Service) CreateConnection(ctx context.Context, c Connection) (Connection, error) {
	if err := validateConnection(c); err != nil {
		return Connection{}, err
	}
	return s.repo.CreateConnection(ctx, c)
}

func (s *Service) UpdateConnection(ctx context.Context, id int64, c Connection) error {
	if err := validateConnection(c); err != nil {
		return err
	}
	return s.repo.UpdateConnection(ctx, id, c)
}

func (s *Service) DeleteConnection(ctx context.Context, id int64) error {
	return s.repo.DeleteConnection(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, connectionID *int64, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRuns(ctx, connectionID, limit)
}

// QueueImport files a full-catalog import; the dispatcher job picks it up
// on its next tick.
func (s *Service) QueueImport(ctx context.Context, connectionID int64) (SyncRun, error) {
	if _, err := s.repo.GetConnection(ctx, connectionID); err != nil {
		return SyncRun{}, err
	}
	return s.repo.QueueRun(ctx, connectionID, RunKindImport)
}

// DueImports lists queued import runs waiting for dispatch.
func (s *Service) DueImports(ctx context.Context) ([]SyncRun, error) {
	return s.repo.DueRuns(ctx, RunKindImport)
}

// ProcessImport executes one queued import run: the full product catalog
// is pulled and mirrored. Claiming the run guards against a double
// dispatch of the same id.
func (s *Service) ProcessImport(ctx context.Context, runID int64) error {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRunning(ctx, runID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("import run already claimed", "run_id", runID)
			return nil
		}
		return fmt.Errorf("claim run %d: %w", runID, err)
	}

	conn, err := s.repo.GetConnection(ctx, run.ConnectionID)
	if err != nil {
		return s.finish(ctx, runID, err)
	}

	list, err := s.clients(conn).Products(ctx)
	if err != nil {
		return s.finish(ctx, runID, err)
	}
	for _, p := range list {
		if err := s.upsertProduct(ctx, conn.ID, p); err != nil {
			return s.finish(ctx, runID, err)
		}
	}
	s.logger.Info("catalog import finished", "connection_id", conn.ID, "products", len(list))
	return s.finish(ctx, runID, nil)
}

// SyncCategories refreshes every active connection's category mirror and
// recomputes the display ordering.
func (s *Service) SyncCategories(ctx context.Context) error {
	conns, err := s.repo.ListConnections(ctx, true)
	if err != nil {
		return err
	}

	var errs []error
	for _, conn := range conns {
		if err := s.syncConnectionCategories(ctx, conn); err != nil {
			s.logger.Error("category sync failed", "connection_id", conn.ID, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if _, err := s.categories.Reorder(ctx); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

func (s *Service) syncConnectionCategories(ctx context.Context, conn Connection) error {
	run, err := s.repo.QueueRun(ctx, conn.ID, RunKindCategories)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRunning(ctx, run.ID); err != nil {
		return err
	}

	list, err := s.clients(conn).Categories(ctx)
	if err != nil {
		return s.finish(ctx, run.ID, err)
	}

	// First pass lands every row so local ids exist, second pass resolves
	// the parent links Woo expresses with its own ids. A parent missing
	// from the feed leaves nil and the tree sort treats the row as a root.
	for _, wc := range list {
		if err := s.catRepo.UpsertFromWoo(ctx, categories.Category{
			ConnectionID: conn.ID,
			WooID:        wc.ID,
			Name:         wc.Name,
			Slug:         wc.Slug,
			MenuOrder:    wc.MenuOrder,
		}); err != nil {
			return s.finish(ctx, run.ID, err)
		}
	}

	existing, err := s.catRepo.ListByConnection(ctx, conn.ID)
	if err != nil {
		return s.finish(ctx, run.ID, err)
	}
	byWooID := make(map[int64]int64, len(existing))
	for _, c := range existing {
		byWooID[c.WooID] = c.ID
	}

	for _, wc := range list {
		cat := categories.Category{
			ConnectionID: conn.ID,
			WooID:        wc.ID,
			Name:         wc.Name,
			Slug:         wc.Slug,
			MenuOrder:    wc.MenuOrder,
		}
		if wc.ParentID != 0 {
			if localID, ok := byWooID[wc.ParentID]; ok {
				cat.ParentID = &localID
			}
		}
		if cat.ParentID == nil && wc.ParentID == 0 {
			continue // roots are already correct from the first pass
		}
		if err := s.catRepo.UpsertFromWoo(ctx, cat); err != nil {
			return s.finish(ctx, run.ID, err)
		}
	}

	s.logger.Info("category sync finished", "connection_id", conn.ID, "categories", len(list))
	return s.finish(ctx, run.ID, nil)
}

// SyncOrders is the webhook catch-up: orders modified since the last
// successful run are fetched and the touched products re-mirrored.
func (s *Service) SyncOrders(ctx context.Context) error {
	conns, err := s.repo.ListConnections(ctx, true)
	if err != nil {
		return err
	}

	var errs []error
	for _, conn := range conns {
		if err := s.syncConnectionOrders(ctx, conn); err != nil {
			s.logger.Error("order sync failed", "connection_id", conn.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) syncConnectionOrders(ctx context.Context, conn Connection) error {
	run, err := s.repo.QueueRun(ctx, conn.ID, RunKindOrders)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRunning(ctx, run.ID); err != nil {
		return err
	}

	since, ok, err := s.repo.LastSuccess(ctx, conn.ID, RunKindOrders)
	if err != nil {
		return s.finish(ctx, run.ID, err)
	}
	if !ok {
		since = time.Now().Add(-orderCatchupWindow)
	}

	client := s.clients(conn)
	orders, err := client.OrdersSince(ctx, since)
	if err != nil {
		return s.finish(ctx, run.ID, err)
	}

	touched := map[int64]struct{}{}
	for _, order := range orders {
		for _, line := range order.LineItems {
			touched[line.ProductID] = struct{}{}
		}
	}
	for wooID := range touched {
		p, err := client.Product(ctx, wooID)
		if err != nil {
			return s.finish(ctx, run.ID, err)
		}
		if err := s.upsertProduct(ctx, conn.ID, p); err != nil {
			return s.finish(ctx, run.ID, err)
		}
	}

	s.logger.Info("order sync finished", "connection_id", conn.ID, "orders", len(orders), "products", len(touched))
	return s.finish(ctx, run.ID, nil)
}

// HandleProductWebhook mirrors one product pushed by the platform.
func (s *Service) HandleProductWebhook(ctx context.Context, connectionID int64, p woo.Product) error {
	conn, err := s.repo.GetConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.IsActive {
		return fmt.Errorf("connection %d: %w", connectionID, errInactive)
	}
	return s.upsertProduct(ctx, conn.ID, p)
}

var errInactive = errors.New("connection is inactive")

func (s *Service) upsertProduct(ctx context.Context, connectionID int64, p woo.Product) error {
	stock := 0
	if p.StockQuantity != nil {
		stock = *p.StockQuantity
	}
	return s.products.UpsertFromWoo(ctx, products.Product{
		ConnectionID:  connectionID,
		WooID:         p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.PriceValue(),
		StockQuantity: stock,
		StockStatus:   p.StockStatus,
		Status:        p.Status,
	})
}

func (s *Service) finish(ctx context.Context, runID int64, runErr error) error {
	if runErr != nil {
		if err := s.repo.MarkFinished(ctx, runID, RunStatusFailed, runErr.Error()); err != nil {
			s.logger.Error("mark sync run failed", "run_id", runID, "error", err)
		}
		return runErr
	}
	return s.repo.MarkFinished(ctx, runID, RunStatusSuccess, "")
}

func validateConnection(c Connection) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("connection name is required")
	}
	if c.Provider != ProviderWooCommerce {
		return errors.New("unsupported provider")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("base URL must be absolute")
	}
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return errors.New("consumer key and secret are required")
	}
	return nil
}
