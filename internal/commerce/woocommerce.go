package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const perPage = 100

type Config struct {
	URL            string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// Client reads the WooCommerce REST API (wc/v3).
type Client struct {
	client *resty.Client
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Tag struct {
	Name string `json:"name"`
}

type Product struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Status           string     `json:"status"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	SKU              string     `json:"sku"`
	Price            string     `json:"price"`
	StockStatus      string     `json:"stock_status"`
	Categories       []Category `json:"categories"`
	Tags             []Tag      `json:"tags"`
	Images           []Image    `json:"images"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(cfg.URL, "/")+"/wp-json/wc/v3").
			SetBasicAuth(cfg.ConsumerKey, cfg.ConsumerSecret).
			SetHeader("Accept", "application/json").
			SetTimeout(timeout).
			SetRetryCount(3).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second),
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s: %s", resp.StatusCode(), path, strings.TrimSpace(resp.String()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// Categories returns product category names keyed by id.
func (c *Client) Categories(ctx context.Context) (map[int]string, error) {
	names := make(map[int]string)
	for page := 1; ; page++ {
		var batch []Category
		params := map[string]string{"per_page": strconv.Itoa(perPage), "page": strconv.Itoa(page)}
		if err := c.get(ctx, "/products/categories", params, &batch); err != nil {
			return nil, err
		}
		for _, cat := range batch {
			names[cat.ID] = cat.Name
		}
		if len(batch) < perPage {
			return names, nil
		}
	}
}

// Products returns one page of published products. An empty page marks the end.
func (c *Client) Products(ctx context.Context, page int) ([]Product, error) {
	var products []Product
	params := map[string]string{
		"per_page": strconv.Itoa(perPage),
		"page":     strconv.Itoa(page),
		"status":   "publish",
	}
	if err := c.get(ctx, "/products", params, &products); err != nil {
		return nil, err
	}
	return products, nil
}
