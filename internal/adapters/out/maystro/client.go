// Package maystro is the delivery-provider adapter for Maystro accounts.
package maystro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"backoffice/internal/adapters/out/httpclient"
	"backoffice/internal/core/domain/model/shipping"
)

const (
	ordersPath = "/stores/orders/"

	// maxPages bounds how many "next" links one lookup follows.
	maxPages = 50
)

var ErrTooManyPages = errors.New("maystro lookup exceeded the page limit")

type orderRecord struct {
	ExternalOrderID reference `json:"external_order_id"`
	TrackingNumber  string      `json:"tracking_number"`
	DisplayID       string      `json:"display_id"`
	Status          int         `json:"status"`
}

type ordersPage struct {
	Count   int           `json:"count"`
	Next    *string       `json:"next"`
	Results []orderRecord `json:"results"`
}

// reference accepts the external id as a JSON string or number.
type reference string

func (r *reference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = reference(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("external_order_id: %w", err)
	}
	*r = reference(n.String())
	return nil
}

// Client looks orders up for one Maystro account. It implements ports.DeliveryProvider.
type Client struct {
	http    *httpclient.Client
	baseURL *url.URL
	token   string
}

func NewClient(http *httpclient.Client, baseURL, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid maystro base url %q", baseURL)
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("maystro token is required")
	}
	return &Client{http: http, baseURL: u, token: strings.TrimSpace(token)}, nil
}

// LookupOrders queries every reference in one request and follows the
// pagination links. Records are returned as the provider sent them.
func (c *Client) LookupOrders(ctx context.Context, refs []string) ([]shipping.ProviderRecord, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	next := c.firstPageURL(refs)
	header := http.Header{"Authorization": {"Token " + c.token}}

	var records []shipping.ProviderRecord
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, ErrTooManyPages
		}

		var body ordersPage
		if err := c.http.GetJSON(ctx, next, header, &body); err != nil {
			return nil, err
		}
		for _, r := range body.Results {
			records = append(records, r.toRecord())
		}

		next = ""
		if body.Next != nil && *body.Next != "" {
			resolved, err := c.resolve(*body.Next)
			if err != nil {
				return nil, err
			}
			next = resolved
		}
	}

	return records, nil
}

func (c *Client) firstPageURL(refs []string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + ordersPath
	q := url.Values{}
	q.Set("external_order_id", strings.Join(refs, ","))
	u.RawQuery = q.Encode()
	return u.String()
}

// resolve accepts absolute and relative next links but never leaves the account host.
func (c *Client) resolve(link string) (string, error) {
	u, err := c.baseURL.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid next link %q: %w", link, err)
	}
	if u.Host != c.baseURL.Host {
		return "", fmt.Errorf("next link %q leaves %s", link, c.baseURL.Host)
	}
	return u.String(), nil
}

func (r orderRecord) toRecord() shipping.ProviderRecord {
	tracking := strings.TrimSpace(r.TrackingNumber)
	if tracking == "" {
		tracking = strings.TrimSpace(r.DisplayID)
	}
	return shipping.ProviderRecord{
		ExternalReference: strings.TrimSpace(string(r.ExternalOrderID)),
		TrackingNumber:    tracking,
		StatusCode:        r.Status,
	}
}
