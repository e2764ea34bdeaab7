package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"nittosodai/internal/repos"
	"nittosodai/internal/webhook"
)

func TestAddToCartRequiresCSRF(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.post(t, "/cart", url.Values{"feedId": {"feed-g"}, "productId": {"A"}, "csrf": {"forged"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without a valid token, got %d", resp.StatusCode)
	}
	if cj := ta.cart(t); cj.Count != 0 {
		t.Fatalf("cart changed despite csrf failure: %+v", cj)
	}
}

func TestAddToCartUsesCatalogPrice(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.post(t, "/cart", url.Values{
		"feedId": {"feed-g"}, "productId": {"A"}, "qty": {"2"},
		"price": {"0.01"}, // ignored
		"next":  {"/category/feed-g?cat=Grocery"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/category/feed-g?cat=Grocery" {
		t.Fatalf("expected redirect back to the category, got %q", loc)
	}

	ta.addToCart(t, "feed-g", "A", "1")
	cj := ta.cart(t)
	if cj.Count != 3 || len(cj.Items) != 1 {
		t.Fatalf("expected 3 units of one product, got %+v", cj)
	}
	if cj.Items[0].Price != 75 || cj.Total != 225 {
		t.Fatalf("expected catalog price 75 and total 225, got %+v", cj)
	}
	if cj.Items[0].Image != "http://img/rice.jpg" {
		t.Fatalf("image not snapshotted: %+v", cj.Items[0])
	}
}

func TestAddToCartRejectsOffsiteRedirectAndBadInput(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.post(t, "/cart", url.Values{"feedId": {"feed-g"}, "productId": {"B"}, "next": {"//evil.example"}})
	if loc := resp.Header.Get("Location"); loc != "/cart" {
		t.Fatalf("offsite next not replaced, got %q", loc)
	}

	resp = ta.post(t, "/cart", url.Values{"feedId": {"feed-g"}, "productId": {"C"}})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for out-of-stock, got %d", resp.StatusCode)
	}
	resp = ta.post(t, "/cart", url.Values{"feedId": {"feed-g"}, "productId": {"nope"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", resp.StatusCode)
	}
	resp = ta.post(t, "/cart", url.Values{"feedId": {"feed\ng"}, "productId": {"A"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid feed id, got %d", resp.StatusCode)
	}
	ta.sheets.failWith("feed-s", http.StatusInternalServerError)
	resp = ta.post(t, "/cart", url.Values{"feedId": {"feed-s"}, "productId": {"S2"}})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 when the feed is down, got %d", resp.StatusCode)
	}

	if cj := ta.cart(t); cj.Count != 1 {
		t.Fatalf("expected only the salt in the cart, got %+v", cj)
	}
}

func TestCartMutations(t *testing.T) {
	ta := newTestApp(t)
	ta.addToCart(t, "feed-g", "A", "1")
	ta.addToCart(t, "feed-g", "B", "1")

	ta.post(t, "/cart/A/decrement", nil)
	if cj := ta.cart(t); cj.Count != 2 {
		t.Fatalf("decrement at 1 must be a no-op, got %+v", cj)
	}

	ta.post(t, "/cart/A/increment", nil)
	ta.post(t, "/cart/A/increment", nil)
	ta.post(t, "/cart/A/decrement", nil)
	ta.post(t, "/cart/B", url.Values{"qty": {"4"}})
	ta.post(t, "/cart/B", url.Values{"qty": {"0"}})
	ta.post(t, "/cart/unknown/increment", nil)

	cj := ta.cart(t)
	if cj.Count != 6 || cj.Total != 310 {
		t.Fatalf("expected 2xA + 4xB = 310, got %+v", cj)
	}

	ta.post(t, "/cart/A/remove", nil)
	cj = ta.cart(t)
	if cj.Count != 4 || len(cj.Items) != 1 || cj.Items[0].ID != "B" {
		t.Fatalf("remove failed: %+v", cj)
	}

	resp := ta.get(t, "/cart")
	s := body(resp)
	if !strings.Contains(s, "Iodized Salt") || !strings.Contains(s, "$160.00") {
		t.Fatalf("cart page missing item or total; body=%s", s)
	}
	if !strings.Contains(s, `class="cart-count">4<`) {
		t.Fatalf("header badge not showing 4; body=%s", s)
	}
}

func TestCartPreviewWithoutSession(t *testing.T) {
	ta := newTestApp(t)
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var cj cartJSON
	if err := json.NewDecoder(resp.Body).Decode(&cj); err != nil {
		t.Fatal(err)
	}
	if cj.Count != 0 || cj.Items == nil {
		t.Fatalf("expected empty preview with items array, got %+v", cj)
	}
}

func placeOrder(t *testing.T, ta *testApp, name, phone, address string) *http.Response {
	t.Helper()
	return ta.post(t, "/orders", url.Values{"name": {name}, "phone": {phone}, "address": {address}})
}

func TestPlaceOrderSuccess(t *testing.T) {
	ta := newTestApp(t)
	ta.addToCart(t, "feed-g", "A", "2")
	ta.addToCart(t, "feed-s", "S2", "1")

	resp := placeOrder(t, ta, "Rahim", "01700000000", "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d body=%s", resp.StatusCode, body(resp))
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/orders/") || !strings.HasSuffix(loc, "?placed=1") {
		t.Fatalf("unexpected redirect %q", loc)
	}

	if ta.hook.count() != 1 {
		t.Fatalf("expected exactly one webhook call, got %d", ta.hook.count())
	}
	p := ta.hook.payloads[0]
	i := strings.Index(p.Content, webhook.Delimiter)
	if i < 0 {
		t.Fatalf("delimiter missing: %q", p.Content)
	}
	var data webhook.OrderData
	if err := json.Unmarshal([]byte(p.Content[i+len(webhook.Delimiter):]), &data); err != nil {
		t.Fatalf("machine block not JSON: %v", err)
	}
	if data.TotalPrice != 175 || len(data.Items) != 2 || data.Customer.Address != "" {
		t.Fatalf("unexpected order data: %+v", data)
	}
	if !strings.Contains(p.Content, `"address":null`) {
		t.Fatalf("empty address must be null: %s", p.Content)
	}

	if cj := ta.cart(t); cj.Count != 0 {
		t.Fatalf("cart not cleared: %+v", cj)
	}

	resp = ta.get(t, loc)
	s := body(resp)
	if !strings.Contains(s, "Order placed successfully! Thank you!") || !strings.Contains(s, "$175.00") {
		t.Fatalf("confirmation page incomplete; body=%s", s)
	}

	resp = ta.get(t, "/orders")
	if s := body(resp); !strings.Contains(s, "Miniket Rice x2") {
		t.Fatalf("history missing order; body=%s", s)
	}

	orderPath := strings.TrimSuffix(loc, "?placed=1")
	resp = ta.get(t, orderPath+"/receipt")
	if s := body(resp); resp.StatusCode != http.StatusOK || !strings.Contains(s, "ORDER RECEIPT") {
		t.Fatalf("printable receipt missing; status=%d body=%s", resp.StatusCode, s)
	}
}

func TestPlaceOrderHistoryMostRecentFirst(t *testing.T) {
	ta := newTestApp(t)
	ta.addToCart(t, "feed-g", "A", "1")
	placeOrder(t, ta, "Rahim", "017", "")
	ta.addToCart(t, "feed-g", "B", "1")
	placeOrder(t, ta, "Rahim", "017", "")

	s := body(ta.get(t, "/orders"))
	salt, rice := strings.Index(s, "Iodized Salt"), strings.Index(s, "Miniket Rice")
	if salt < 0 || rice < 0 || salt > rice {
		t.Fatalf("expected newest order first; body=%s", s)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	ta := newTestApp(t)
	resp := placeOrder(t, ta, "Rahim", "017", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if s := body(resp); !strings.Contains(s, "Your cart is empty, add some items to order!") {
		t.Fatalf("empty cart message missing; body=%s", s)
	}
	if ta.hook.count() != 0 {
		t.Fatal("webhook must not be called for an empty cart")
	}
}

func TestPlaceOrderMissingFields(t *testing.T) {
	ta := newTestApp(t)
	ta.addToCart(t, "feed-g", "A", "1")

	resp := placeOrder(t, ta, "Rahim", "   ", "Dhaka")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	s := body(resp)
	if !strings.Contains(s, "Please fill in your name and phone number to complete the order.") {
		t.Fatalf("missing-fields message missing; body=%s", s)
	}
	if !strings.Contains(s, "Dhaka") {
		t.Fatalf("form input not kept; body=%s", s)
	}
	if ta.hook.count() != 0 {
		t.Fatal("webhook must not be called with missing fields")
	}
	if cj := ta.cart(t); cj.Count != 1 {
		t.Fatalf("cart changed: %+v", cj)
	}
}

func TestPlaceOrderWebhookFailureKeepsCart(t *testing.T) {
	ta := newTestApp(t)
	ta.addToCart(t, "feed-g", "A", "1")
	ta.hook.status = http.StatusInternalServerError

	resp := placeOrder(t, ta, "Rahim", "017", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if s := body(resp); !strings.Contains(s, "Error placing order. Please try again.") {
		t.Fatalf("failure message missing; body=%s", s)
	}
	if ta.hook.count() != 1 {
		t.Fatalf("expected a single attempt, got %d", ta.hook.count())
	}
	if cj := ta.cart(t); cj.Count != 1 {
		t.Fatalf("cart must be untouched: %+v", cj)
	}
	if s := body(ta.get(t, "/orders")); strings.Contains(s, "Miniket Rice") {
		t.Fatalf("failed order recorded in history; body=%s", s)
	}
}

func TestOrderOfAnotherSessionIsHidden(t *testing.T) {
	ta := newTestApp(t)
	ta.addToCart(t, "feed-g", "A", "1")
	loc := placeOrder(t, ta, "Rahim", "017", "").Header.Get("Location")
	orderPath := strings.TrimSuffix(loc, "?placed=1")

	other := *ta
	other.sid = "8d9f3b7e-3c1a-4f43-9d1c-2a6c7e1b5f00"
	resp := other.get(t, orderPath)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for another session's order, got %d", resp.StatusCode)
	}
	resp = other.get(t, orderPath+"/receipt.pdf")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for another session's receipt, got %d", resp.StatusCode)
	}
}

func TestFreeTextProductIDs(t *testing.T) {
	ta := newTestApp(t)
	ta.sheets.rows["feed-x"] = [][]any{
		productHeader,
		{"Nazirshail Rice", "Chashi", "5kg", "90", "", "http://img/n.jpg", "Rice 5kg", "grain"},
		{"Mustard Oil", "Radhuni", "1L", "", "210", "http://img/o.jpg", "SKU#12", "oil"},
	}

	s := body(ta.get(t, "/category/feed-x?cat=Rice"))
	for _, want := range []string{"/product/feed-x/Rice%205kg", "/product/feed-x/SKU%2312", "$210.00"} {
		if !strings.Contains(s, want) {
			t.Fatalf("category page missing %q; body=%s", want, s)
		}
	}

	resp := ta.get(t, "/product/feed-x/Rice%205kg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail for spaced id: expected 200, got %d", resp.StatusCode)
	}

	ta.addToCart(t, "feed-x", "Rice 5kg", "1")
	ta.addToCart(t, "feed-x", "SKU#12", "1")
	ta.post(t, "/cart/Rice%205kg/increment", nil)
	ta.post(t, "/cart/SKU%2312/remove", nil)

	cj := ta.cart(t)
	if cj.Count != 2 || len(cj.Items) != 1 || cj.Items[0].ID != "Rice 5kg" || cj.Total != 180 {
		t.Fatalf("unexpected cart: %+v", cj)
	}
	if s := body(ta.get(t, "/cart")); !strings.Contains(s, `/cart/Rice%205kg/increment`) {
		t.Fatalf("cart forms not escaped; body=%s", s)
	}
}

type failingOrdersSave struct{ repos.StateStore }

func (f failingOrdersSave) Save(ctx context.Context, sessionID, key string, value []byte) error {
	if key == repos.KeyPastOrders {
		return errors.New("disk full")
	}
	return f.StateStore.Save(ctx, sessionID, key, value)
}

func TestPlaceOrderHistoryFailureKeepsCart(t *testing.T) {
	ta := newTestApp(t, func(s repos.StateStore) repos.StateStore { return failingOrdersSave{s} })
	ta.addToCart(t, "feed-g", "A", "2")

	resp := placeOrder(t, ta, "Rahim", "017", "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if s := body(resp); !strings.Contains(s, "could not be saved on this device") {
		t.Fatalf("not-saved message missing; body=%s", s)
	}
	if ta.hook.count() != 1 {
		t.Fatalf("expected the order to reach the shop once, got %d", ta.hook.count())
	}
	if cj := ta.cart(t); cj.Count != 2 {
		t.Fatalf("cart must survive a failed history write: %+v", cj)
	}
}
