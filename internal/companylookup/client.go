package companylookup

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/stockline-erp/stockline/internal/shared"
)

// testCUI is a known-valid registration code used by TestConnection to
// probe configuration and connectivity.
const testCUI = "13548146"

// Profile is the extracted company record plus the raw upstream payload.
type Profile struct {
	CompanyName      string         `json:"company_name"`
	CompanyVATNumber string         `json:"company_vat_number"`
	RegCom           string         `json:"reg_com"`
	Address          string         `json:"address"`
	City             string         `json:"city"`
	County           string         `json:"county"`
	Source           map[string]any `json:"source"`
}

type Client struct {
	settings SettingsRepository
}

func NewClient(settings SettingsRepository) *Client {
	return &Client{settings: settings}
}

// Lookup resolves a company identifier against the configured registry
// API. When explicit is non-nil and active it is used instead of the
// stored active configuration. No HTTP request is made until the
// identifier and configuration both check out.
func (c *Client) Lookup(ctx context.Context, cui string, explicit *APISetting) (Profile, error) {
	normalized := Normalize(cui)
	if normalized == "" {
		return Profile{}, ErrInvalidCUI
	}

	setting, err := c.resolveSetting(ctx, explicit)
	if err != nil {
		return Profile{}, err
	}

	client := resty.New().SetTimeout(setting.Timeout())
	if !setting.VerifyTLS {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("x-api-key", setting.APIKey).
		Get(strings.TrimRight(setting.BaseURL, "/") + "/api/companies/" + normalized)
	if err != nil {
		return Profile{}, fmt.Errorf("company lookup request: %w", err)
	}

	switch {
	case resp.StatusCode() >= 200 && resp.StatusCode() < 300 && resp.StatusCode() != 202:
		return extractProfile(resp.Body(), normalized)
	case resp.StatusCode() == 202:
		return Profile{}, retryableError(resp.Body())
	default:
		return Profile{}, terminalError(resp.StatusCode(), resp.Body())
	}
}

// TestConnection runs a lookup for a fixed known identifier and discards
// the result; it only validates credentials and reachability.
func (c *Client) TestConnection(ctx context.Context, setting *APISetting) error {
	_, err := c.Lookup(ctx, testCUI, setting)
	return err
}

func (c *Client) resolveSetting(ctx context.Context, explicit *APISetting) (APISetting, error) {
	if explicit != nil && explicit.IsActive {
		if explicit.APIKey == "" {
			return APISetting{}, ErrNotConfigured
		}
		return *explicit, nil
	}
	setting, err := c.settings.Active(ctx)
	if err != nil {
		if err == shared.ErrNotFound {
			return APISetting{}, ErrNotConfigured
		}
		return APISetting{}, err
	}
	if setting.APIKey == "" {
		return APISetting{}, ErrNotConfigured
	}
	return setting, nil
}

func extractProfile(body []byte, normalized string) (Profile, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Profile{}, fmt.Errorf("company lookup: unexpected response body: %w", err)
	}

	// Some upstream versions wrap the record in a "data" envelope.
	if nested, ok := payload["data"].(map[string]any); ok {
		if _, hasName := nested["denumire"]; hasName {
			payload = nested
		}
	}

	profile := Profile{
		CompanyName:      firstString(payload, "denumire"),
		CompanyVATNumber: firstString(payload, "cif"),
		RegCom:           firstString(payload, "numar_reg_com"),
		Address:          firstString(payload, "adresa"),
		City:             firstString(payload, "localitate", "oras", "city"),
		County:           firstString(payload, "judet", "county"),
		Source:           payload,
	}
	if profile.CompanyVATNumber == "" {
		profile.CompanyVATNumber = normalized
	}
	return profile, nil
}

func retryableError(body []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if hint := firstString(payload, "retry_after"); hint != "" {
			return fmt.Errorf("%w: retry after %s", ErrUnavailable, hint)
		}
	}
	return ErrUnavailable
}

func terminalError(status int, body []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, path := range []string{"error.description", "error.title", "message"} {
			if msg := stringAtPath(payload, path); msg != "" {
				return fmt.Errorf("company lookup: %s", msg)
			}
		}
	}

	switch status {
	case 400:
		return fmt.Errorf("company lookup: invalid request")
	case 403:
		return fmt.Errorf("company lookup: access forbidden, check the API key")
	case 404:
		return fmt.Errorf("company lookup: company not found")
	case 429:
		return fmt.Errorf("company lookup: rate limit exceeded")
	default:
		return fmt.Errorf("company lookup failed with status %d", status)
	}
}

// firstString returns the first candidate key whose value is a non-empty
// string. Non-scalar values are skipped.
func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// stringAtPath walks a dotted path through nested objects.
func stringAtPath(payload map[string]any, path string) string {
	parts := strings.Split(path, ".")
	current := payload
	for i, part := range parts {
		if i == len(parts)-1 {
			if v, ok := current[part].(string); ok {
				return v
			}
			return ""
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return ""
		}
		current = next
	}
	return ""
}
