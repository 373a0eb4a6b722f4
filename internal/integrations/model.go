package integrations

import "time"

const ProviderWooCommerce = "woocommerce"

// Connection is one configured store on the e-commerce platform.
type Connection struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Provider       string    `json:"provider"`
	BaseURL        string    `json:"base_url"`
	ConsumerKey    string    `json:"consumer_key"`
	ConsumerSecret string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type RunKind string

const (
	RunKindOrders     RunKind = "orders"
	RunKindCategories RunKind = "categories"
	RunKindImport     RunKind = "import"
)

type RunStatus string

const (
	RunStatusQueued  RunStatus = "queued"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// SyncRun records one execution of a sync operation against a connection.
type SyncRun struct {
	ID           int64      `json:"id"`
	ConnectionID int64      `json:"connection_id"`
	Kind         RunKind    `json:"kind"`
	Status       RunStatus  `json:"status"`
	Detail       *string    `json:"detail,omitempty"`
	QueuedAt     time.Time  `json:"queued_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
