// Package ecomanager reads orders from the EcoManager order-management API.
package ecomanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/adapters/out/httpclient"
	"backoffice/internal/core/ports"
)

const (
	ordersPath = "/orders"
	perPage    = 100
)

// Client implements ports.OrderSource.
type Client struct {
	http           *httpclient.Client
	baseURL        *url.URL
	token          string
	defaultStoreID string
}

func NewClient(http *httpclient.Client, baseURL, token, defaultStoreID string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ecomanager base url %q", baseURL)
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("ecomanager token is required")
	}
	return &Client{
		http:           http,
		baseURL:        u,
		token:          strings.TrimSpace(token),
		defaultStoreID: defaultStoreID,
	}, nil
}

type sourceOrder struct {
	ID        flexString `json:"id"`
	Reference flexString `json:"reference"`
	StoreID   flexString `json:"store_id"`
	CreatedAt string     `json:"created_at"`
}

type ordersPage struct {
	Data  []sourceOrder `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	} `json:"meta"`
}

// FetchOrders reads one page, newest first. Pages start at 1.
func (c *Client) FetchOrders(ctx context.Context, page int) (ports.SourceOrderPage, error) {
	if page < 1 {
		page = 1
	}

	var body ordersPage
	header := http.Header{
		"Authorization": {"Bearer " + c.token},
		"Accept":        {"application/json"},
	}
	if err := c.http.GetJSON(ctx, c.pageURL(page), header, &body); err != nil {
		return ports.SourceOrderPage{}, err
	}

	out := ports.SourceOrderPage{
		Orders:  make([]ports.SourceOrder, 0, len(body.Data)),
		HasNext: hasNext(body),
	}
	for _, o := range body.Data {
		ref := strings.TrimSpace(string(o.Reference))
		if ref == "" {
			ref = strings.TrimSpace(string(o.ID))
		}
		if ref == "" {
			continue
		}
		store := strings.TrimSpace(string(o.StoreID))
		if store == "" {
			store = c.defaultStoreID
		}
		out.Orders = append(out.Orders, ports.SourceOrder{
			StoreID:   store,
			Reference: ref,
			CreatedAt: parseTime(o.CreatedAt),
		})
	}
	return out, nil
}

func (c *Client) pageURL(page int) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + ordersPath
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("sort", "-id")
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func hasNext(p ordersPage) bool {
	if p.Links.Next != nil && *p.Links.Next != "" {
		return true
	}
	return p.Meta.LastPage > 0 && p.Meta.CurrentPage < p.Meta.LastPage
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05.000000Z"}

// parseTime falls back to the zero time; ingestion stamps it with now.
func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// flexString decodes ids sent either as strings or as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
