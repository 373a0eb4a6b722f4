// Package woo is a thin client for the WooCommerce REST API (v3).
package woo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type Category struct {
	ID        int64  `json:"id"`
	ParentID  int64  `json:"parent"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	MenuOrder *int   `json:"menu_order"`
}

type Product struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	StockQuantity *int   `json:"stock_quantity"`
	StockStatus   string `json:"stock_status"`
	Status        string `json:"status"`
}

func (p Product) PriceValue() float64 {
	v, _ := strconv.ParseFloat(p.Price, 64)
	return v
}

type OrderLine struct {
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type Order struct {
	ID        int64       `json:"id"`
	Status    string      `json:"status"`
	Total     string      `json:"total"`
	LineItems []OrderLine `json:"line_items"`
}

type Client struct {
	http *resty.Client
}

// NewClient builds a client for one store. Key and secret are passed as
// query parameters, which is what WooCommerce expects over HTTPS.
func NewClient(baseURL, consumerKey, consumerSecret string) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/wp-json/wc/v3").
		SetTimeout(30 * time.Second).
		SetQueryParam("consumer_key", consumerKey).
		SetQueryParam("consumer_secret", consumerSecret).
		SetHeader("Accept", "application/json")
	return &Client{http: http}
}

// Categories pages through every product category.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var all []Category
	for page := 1; ; page++ {
		var batch []Category
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("per_page", "100").
			SetQueryParam("page", strconv.Itoa(page)).
			SetResult(&batch).
			Get("/products/categories")
		if err != nil {
			return nil, fmt.Errorf("woo: fetch categories: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("woo: fetch categories: status %d", resp.StatusCode())
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}

// Products pages through the full catalog.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var all []Product
	for page := 1; ; page++ {
		var batch []Product
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("per_page", "100").
			SetQueryParam("page", strconv.Itoa(page)).
			SetResult(&batch).
			Get("/products")
		if err != nil {
			return nil, fmt.Errorf("woo: fetch products: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("woo: fetch products: status %d", resp.StatusCode())
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}

func (c *Client) Product(ctx context.Context, id int64) (Product, error) {
	var p Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&p).
		Get("/products/" + strconv.FormatInt(id, 10))
	if err != nil {
		return Product{}, fmt.Errorf("woo: fetch product %d: %w", id, err)
	}
	if resp.StatusCode() != 200 {
		return Product{}, fmt.Errorf("woo: fetch product %d: status %d", id, resp.StatusCode())
	}
	return p, nil
}

// OrdersSince returns orders modified after the given time, oldest first.
func (c *Client) OrdersSince(ctx context.Context, since time.Time) ([]Order, error) {
	var all []Order
	for page := 1; ; page++ {
		var batch []Order
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("per_page", "100").
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("orderby", "date").
			SetQueryParam("order", "asc").
			SetQueryParam("modified_after", since.UTC().Format(time.RFC3339)).
			SetResult(&batch).
			Get("/orders")
		if err != nil {
			return nil, fmt.Errorf("woo: fetch orders: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("woo: fetch orders: status %d", resp.StatusCode())
		}
		all = append(all, batch...)
		if len(batch) < 100 {
			return all, nil
		}
	}
}
