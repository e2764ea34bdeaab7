// Package sheets reads tabular catalog data from the Google Sheets values API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const DefaultEndpoint = "https://sheets.googleapis.com/"

// columnRange covers name..tags; wider than needed so extra columns never shift parsing.
const columnRange = "A:I"

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	svc    *gsheets.Service
	apiKey string
}

// FetchError is returned for network failures and non-2xx responses.
type FetchError struct {
	SpreadsheetID string
	Range         string
	StatusCode    int // 0 when the request never got a response
	Err           error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s %s: status %d: %v", e.SpreadsheetID, e.Range, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.SpreadsheetID, e.Range, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err came from a failed catalog fetch.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	// The API key travels as the `key` query parameter on each call, so the
	// plain HTTP client is enough and no credential discovery runs.
	svc, err := gsheets.NewService(ctx,
		option.WithHTTPClient(hc),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, apiKey: cfg.APIKey}, nil
}

// Rows returns every row of sheetName!A:I as strings, header included.
func (c *Client) Rows(ctx context.Context, spreadsheetID, sheetName string) ([][]string, error) {
	rng := sheetName + "!" + columnRange
	var opts []googleapi.CallOption
	if c.apiKey != "" {
		opts = append(opts, googleapi.QueryParameter("key", c.apiKey))
	}
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do(opts...)
	if err != nil {
		fe := &FetchError{SpreadsheetID: spreadsheetID, Range: rng, Err: err}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			fe.StatusCode = gerr.Code
		}
		return nil, fe
	}
	return stringify(resp.Values), nil
}

func stringify(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		r := make([]string, len(row))
		for i, v := range row {
			switch x := v.(type) {
			case nil:
			case string:
				r[i] = x
			default:
				r[i] = fmt.Sprint(x)
			}
		}
		out = append(out, r)
	}
	return out
}
