package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nittosodai/internal/domain"
)

// Delimiter separates the human text of the message from the machine JSON
// block that the order bot parses.
const Delimiter = "---ORDER_DATA_JSON---"

const embedColor = 6737517

type Payload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

type Embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []EmbedField `json:"fields"`
	Footer    EmbedFooter  `json:"footer"`
	Timestamp string       `json:"timestamp"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// OrderData is the machine-readable block after Delimiter.
type OrderData struct {
	Customer   domain.Customer    `json:"customer"`
	Items      []domain.OrderItem `json:"items"`
	TotalPrice float64            `json:"totalPrice"`
}

// StatusError is a non-2xx answer from the webhook.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

type Client struct {
	url       string
	storeName string
	client    *http.Client
}

// New returns a client posting to url. A nil httpClient gets a 15s timeout.
func New(url string, httpClient *http.Client, storeName string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{url: url, storeName: storeName, client: httpClient}
}

// BuildPayload renders o as a chat message with one receipt embed.
func BuildPayload(o domain.Order, storeName string) (Payload, error) {
	data, err := json.Marshal(OrderData{Customer: o.Customer, Items: o.Items, TotalPrice: o.TotalPrice})
	if err != nil {
		return Payload{}, err
	}

	address := o.Customer.Address
	if address == "" {
		address = "N/A"
	}
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("- %s x%d ($%.2f)", it.Name, it.Quantity, it.Price))
	}

	return Payload{
		Content: "New Order Received!\n" + Delimiter + string(data),
		Embeds: []Embed{{
			Title: "Order Receipt",
			Color: embedColor,
			Fields: []EmbedField{
				{Name: "Customer Info", Value: fmt.Sprintf("Name: %s\nPhone: %s\nAddress: %s", o.Customer.Name, o.Customer.Phone, address)},
				{Name: "Items", Value: strings.Join(lines, "\n")},
				{Name: "Total Price", Value: fmt.Sprintf("$%.2f", o.TotalPrice)},
			},
			Footer:    EmbedFooter{Text: "Order received from " + storeName},
			Timestamp: o.SubmittedAt.UTC().Format(time.RFC3339Nano),
		}},
	}, nil
}

// Send posts o once; there is no retry.
func (c *Client) Send(ctx context.Context, o domain.Order) error {
	payload, err := BuildPayload(o, c.storeName)
	if err != nil {
		return fmt.Errorf("failed to build webhook payload: %w", err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
