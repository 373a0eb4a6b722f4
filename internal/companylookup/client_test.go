package companylookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/shared"
)

type fakeSettings struct {
	active *APISetting
}

func (f *fakeSettings) Active(_ context.Context) (APISetting, error) {
	if f.active == nil {
		return APISetting{}, shared.ErrNotFound
	}
	return *f.active, nil
}

func (f *fakeSettings) Get(_ context.Context, _ int64) (APISetting, error) {
	return f.Active(context.Background())
}

func (f *fakeSettings) List(_ context.Context) ([]APISetting, error) { return nil, nil }

func (f *fakeSettings) Save(_ context.Context, s APISetting) (APISetting, error) {
	f.active = &s
	return s, nil
}

func settingsFor(server *httptest.Server) *fakeSettings {
	return &fakeSettings{active: &APISetting{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		VerifyTLS: true,
		IsActive:  true,
	}}
}

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/companies/13548146", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"denumire":"Acme","cif":"13548146","localitate":"Bucuresti"}`))
	}))
	defer server.Close()

	client := NewClient(settingsFor(server))
	profile, err := client.Lookup(context.Background(), "RO 13548146", nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.CompanyName)
	assert.Equal(t, "13548146", profile.CompanyVATNumber)
	assert.Equal(t, "Bucuresti", profile.City)
}

func TestLookupDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"denumire":"Wrapped SRL","judet":"Cluj"}}`))
	}))
	defer server.Close()

	client := NewClient(settingsFor(server))
	profile, err := client.Lookup(context.Background(), "99887766", nil)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped SRL", profile.CompanyName)
	assert.Equal(t, "Cluj", profile.County)
	// cif absent upstream, falls back to the normalized input.
	assert.Equal(t, "99887766", profile.CompanyVATNumber)
}

func TestLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(settingsFor(server))
	_, err := client.Lookup(context.Background(), "13548146", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestLookupUpstreamMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"cui is malformed"}}`))
	}))
	defer server.Close()

	client := NewClient(settingsFor(server))
	_, err := client.Lookup(context.Background(), "13548146", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cui is malformed")
}

func TestLookupRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"retry_after":"30s"}`))
	}))
	defer server.Close()

	client := NewClient(settingsFor(server))
	_, err := client.Lookup(context.Background(), "13548146", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "30s")
}

func TestLookupInvalidCUI(t *testing.T) {
	client := NewClient(&fakeSettings{})
	_, err := client.Lookup(context.Background(), "abc", nil)
	assert.ErrorIs(t, err, ErrInvalidCUI)
}

func TestLookupNotConfiguredSkipsHTTP(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(&fakeSettings{})
	_, err := client.Lookup(context.Background(), "13548146", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int64(0), calls.Load())
}

func TestLookupMissingAPIKey(t *testing.T) {
	settings := &fakeSettings{active: &APISetting{BaseURL: "http://localhost:1", IsActive: true}}
	client := NewClient(settings)
	_, err := client.Lookup(context.Background(), "13548146", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
