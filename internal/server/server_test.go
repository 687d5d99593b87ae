package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"frontend/internal/cache"
	"frontend/internal/crypto"
	"frontend/internal/handler"
	"frontend/internal/market_client"
	"frontend/internal/notify"
	"frontend/internal/repository"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const cookieName = "wallet_session"

var (
	clinic = map[string]any{
		"cid": "cid1", "title": "Clinic visits", "category": "Medical", "uploader": "0x9999999999999999999999999999999999999999",
		"timestamp": "2024-01-02T10:00:00", "quality_score": 91, "file_size": 2048, "price": 25,
		"description": "Synthetic outpatient records", "tags": []string{"health"},
	}
	alpha = map[string]any{
		"cid": "cid2", "title": "Alpha Finance", "category": "Finance", "uploader": "0x8888888888888888888888888888888888888888",
		"timestamp": "2024-01-03T10:00:00", "quality_score": 70, "file_size": 4096, "price": 50,
		"description": "Ledger entries", "tags": []string{},
	}
	openData = map[string]any{
		"cid": "cid3", "title": "Open census", "category": "Retail", "uploader": "0x7777777777777777777777777777777777777777",
		"timestamp": "2024-01-04T10:00:00", "quality_score": 65, "file_size": 1024, "price": 0,
		"description": "Public sample", "tags": []string{},
	}
)

type recordingNotifier struct {
	mu        sync.Mutex
	sales     []notify.Sale
	deadlines []bool
}

func (n *recordingNotifier) SaleCompleted(ctx context.Context, sale notify.Sale) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, bounded := ctx.Deadline()
	n.sales = append(n.sales, sale)
	n.deadlines = append(n.deadlines, bounded)
}

type backend struct {
	mu          sync.Mutex
	listQuery   url.Values
	purchaseErr bool
	metadataErr bool
	purchases   int
}

func (b *backend) setMetadataErr(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metadataErr = v
}

func envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

func detail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"detail": msg})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	metadataErr, purchaseErr := b.metadataErr, b.purchaseErr
	b.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/health":
		envelope(w, http.StatusOK, map[string]any{"status": "healthy", "service": "marketplace"})
	case path == "/api/stats":
		envelope(w, http.StatusOK, map[string]any{
			"datasets":     map[string]any{"total_count": 4242, "category_distribution": map[string]int{"Medical": 3}},
			"transactions": map[string]any{"completed_transactions": 7, "total_transactions": 9, "total_volume": 1234.5},
		})
	case path == "/api/categories":
		envelope(w, http.StatusOK, map[string]any{"categories": []string{"Medical", "Finance"}})
	case path == "/api/datasets":
		b.mu.Lock()
		b.listQuery = r.URL.Query()
		b.mu.Unlock()
		envelope(w, http.StatusOK, map[string]any{"datasets": []any{alpha, clinic}, "total_count": 2})
	case metadataErr && strings.HasPrefix(path, "/api/metadata/"):
		detail(w, http.StatusServiceUnavailable, "Metadata store unavailable")
	case path == "/api/metadata/cid1":
		envelope(w, http.StatusOK, clinic)
	case path == "/api/metadata/cid3":
		envelope(w, http.StatusOK, openData)
	case strings.HasPrefix(path, "/api/metadata/"):
		detail(w, http.StatusNotFound, "Dataset not found")
	case path == "/api/preview/cid1":
		envelope(w, http.StatusOK, map[string]any{"sample_data": []any{map[string]any{"age": 34, "diagnosis": nil}}, "total_rows": 100, "total_columns": 2})
	case path == "/api/formats/cid1":
		envelope(w, http.StatusOK, map[string]any{"formats": []string{"csv", "zip"}})
	case path == "/api/stats/cid1":
		envelope(w, http.StatusOK, map[string]any{"mean_age": 41.5})
	case path == "/api/transactions/dataset/cid1":
		envelope(w, http.StatusOK, map[string]any{"transactions": []any{}, "total_sales": 3, "total_revenue": 75})
	case path == "/api/generate":
		envelope(w, http.StatusOK, map[string]any{
			"cid":          "gen1234567890",
			"preview":      map[string]any{"sample_data": []any{map[string]any{"age": 34, "diagnosis": nil}}, "total_rows": 10, "total_columns": 2},
			"metadata":     map[string]any{"cid": "gen1234567890", "title": "Generated", "category": "Medical", "quality_score": 85, "timestamp": "2024-01-02T10:00:00"},
			"file_size_mb": 0.5,
		})
	case path == "/api/purchase":
		b.mu.Lock()
		b.purchases++
		b.mu.Unlock()
		if purchaseErr {
			detail(w, http.StatusInternalServerError, "Escrow contract unavailable")
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		envelope(w, http.StatusOK, map[string]any{
			"transaction": map[string]any{"tx_id": "tx1", "cid": req["cid"], "buyer": req["buyer"], "seller": clinic["uploader"], "amount": req["amount"], "status": "pending"},
		})
	case path == "/api/pay":
		envelope(w, http.StatusOK, map[string]any{
			"transaction": map[string]any{
				"tx_id": "tx1", "cid": "cid1", "buyer": service.DemoAddresses[0], "seller": clinic["uploader"],
				"amount": 25, "status": "completed", "escrow_released": true, "timestamp": "2024-01-02T10:05:00",
			},
			"access_granted": true,
			"download_url":   "/api/download/cid1",
		})
	case path == "/api/download/cid1":
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "age,diagnosis\n34,\n")
	case strings.HasPrefix(path, "/api/transactions/user/"):
		envelope(w, http.StatusOK, map[string]any{"transactions": []any{
			map[string]any{"tx_id": "tx1", "cid": "cid1", "buyer": service.DemoAddresses[0], "seller": clinic["uploader"], "amount": 25, "status": "completed"},
			map[string]any{"tx_id": "tx2", "cid": "cid2", "buyer": alpha["uploader"], "seller": service.DemoAddresses[0], "amount": 50, "status": "pending"},
		}})
	case strings.HasPrefix(path, "/api/purchases/"):
		envelope(w, http.StatusOK, map[string]any{"purchases": []any{}, "total_spent": 25})
	case strings.HasPrefix(path, "/api/sales/"):
		envelope(w, http.StatusOK, map[string]any{"sales": []any{}, "total_earned": 50})
	default:
		detail(w, http.StatusNotFound, "Not Found")
	}
}

type testEnv struct {
	server   *Server
	backend  *backend
	api      *httptest.Server
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	b := &backend{}
	api := httptest.NewServer(b)
	t.Cleanup(api.Close)

	db, err := repository.NewDB(repository.TypeSQLite, filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repository.MigrateDB(db, repository.TypeSQLite, logger); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	km, err := crypto.NewKeyManagerFromKey(key)
	if err != nil {
		t.Fatal(err)
	}

	client := market_client.NewClient(api.URL, 5*time.Second, logger)
	activity := repository.NewActivityRepository(db, logger)
	wallets := service.NewWalletService(km, time.Hour, logger)
	notifier := &recordingNotifier{}

	h := handler.New(handler.Deps{
		Client:     client,
		Catalog:    service.NewCatalog(client, cache.NopCache{}, time.Minute, logger),
		Bidding:    service.NewBiddingService(repository.NewBidRepository(db, logger), activity, logger),
		Wallets:    wallets,
		Activity:   activity,
		Notifier:   notifier,
		Currency:   "MATIC",
		CookieName: cookieName,
		SessionTTL: time.Hour,
		Logger:     logger,
	})

	log := logrus.New()
	log.SetOutput(io.Discard)
	srv, err := NewServer(h, Options{Addr: ":0", Sessions: wallets, CookieName: cookieName, Logger: logger}, log)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testEnv{server: srv, backend: b, api: api, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) connect(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/wallet/connect", url.Values{"address": {service.DemoAddresses[0]}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/wallet" {
		t.Fatalf("connect: status %d location %q", w.Code, w.Header().Get("Location"))
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func expectBody(t *testing.T, w *httptest.ResponseRecorder, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := ParseTemplates()
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	for _, name := range []string{"home.html", "generate.html", "sell.html", "marketplace.html", "dataset.html", "purchase.html", "wallet.html", "history.html", "transaction.html", "error.html"} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("template %s not found", name)
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("healthz: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	w = env.do(t, http.MethodGet, "/health/backend", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("backend health: %d %s", w.Code, w.Body.String())
	}

	env.api.Close()
	w = env.do(t, http.MethodGet, "/health/backend", nil)
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "Network error") {
		t.Errorf("backend down: %d %s", w.Code, w.Body.String())
	}
}

func TestHomeShowsStats(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "4,242", "Total Datasets", "$1,234.50", "Connect Wallet")
}

func TestMarketplaceSortsAndFilters(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/marketplace", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Index(body, "Clinic visits") > strings.Index(body, "Alpha Finance") {
		t.Error("default sort should put the highest quality first")
	}
	env.backend.mu.Lock()
	q := env.backend.listQuery
	env.backend.mu.Unlock()
	if q.Get("limit") != "50" || q.Get("max_price") != "1000" || q.Has("min_quality") {
		t.Errorf("list query: %v", q)
	}

	w = env.do(t, http.MethodGet, "/marketplace?sort=title&order=asc&category=Finance", nil)
	body = w.Body.String()
	if strings.Index(body, "Alpha Finance") > strings.Index(body, "Clinic visits") {
		t.Error("title sort should put Alpha first")
	}
	env.backend.mu.Lock()
	q = env.backend.listQuery
	env.backend.mu.Unlock()
	if q.Get("category") != "Finance" {
		t.Errorf("category not forwarded: %v", q)
	}
}

func TestDatasetPage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/dataset/cid1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "Clinic visits", "Premium", "<th>age</th>", "N/A", "26.25", "Connect a wallet to bid")

	w = env.do(t, http.MethodGet, "/dataset/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing dataset: got %d", w.Code)
	}
	expectBody(t, w, "Dataset not found", "Try again")
}

func TestBidding(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/dataset/cid1/bids", url.Values{"amount": {"30"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bid without wallet: got %d", w.Code)
	}
	expectBody(t, w, "Please connect a wallet to bid")

	cookie := env.connect(t)
	w = env.do(t, http.MethodPost, "/dataset/cid1/bids", url.Values{"amount": {"20"}}, cookie)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("low bid: got %d", w.Code)
	}
	expectBody(t, w, "Bid must be at least 26.25 MATIC")

	w = env.do(t, http.MethodPost, "/dataset/cid1/bids", url.Values{"amount": {"30"}}, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("bid: got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, w.Header().Get("Location"), nil, cookie)
	expectBody(t, w, "Bid placed successfully", "30.00 MATIC", "31.50")
}

func TestGenerate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/generate", url.Values{"category": {"Medical"}, "rows": {"0"}, "columns": {"5"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid rows: got %d", w.Code)
	}
	expectBody(t, w, "Number of rows must be between 1 and 100,000")

	w = env.do(t, http.MethodPost, "/generate", url.Values{"category": {"Medical"}, "rows": {"10"}, "columns": {"2"}, "title": {"Visits"}})
	if w.Code != http.StatusOK {
		t.Fatalf("generate: got %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "gen1234567890", "High Quality", "<th>diagnosis</th>", "N/A", "/generate/gen1234567890/download?format=csv")
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/download/cid1?format=csv&title=Clinic", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="Clinic_cid1.csv"` {
		t.Errorf("disposition: %q", got)
	}
	if w.Body.String() != "age,diagnosis\n34,\n" {
		t.Errorf("body: %q", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/download/cid1?format=exe", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format: got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/download/other", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("upstream 404: got %d", w.Code)
	}
	expectBody(t, w, "Download failed")
}

func TestPurchaseFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.connect(t)

	w := env.do(t, http.MethodGet, "/purchase/cid1", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("purchase page: got %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "Clinic visits", service.DemoAddresses[0], "Pay $25.00")

	w = env.do(t, http.MethodPost, "/purchase/cid1/pay", url.Values{"amount": {"10"}}, cookie)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("low amount: got %d", w.Code)
	}
	expectBody(t, w, "Payment amount must be at least $25")

	w = env.do(t, http.MethodPost, "/purchase/cid1/pay", url.Values{"amount": {"25"}}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("pay: got %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "Purchase complete", "Transaction Successful", "Payment Released", "tx1", "Download Dataset")

	if len(env.notifier.sales) != 1 || env.notifier.sales[0].TxID != "tx1" || env.notifier.sales[0].Title != "Clinic visits" {
		t.Errorf("notifications: %+v", env.notifier.sales)
	}
	if len(env.notifier.deadlines) != 1 || !env.notifier.deadlines[0] {
		t.Error("sale notification should run with a deadline")
	}

	w = env.do(t, http.MethodGet, "/wallet", nil, cookie)
	expectBody(t, w, "Recent activity", "purchase", "12.5 MATIC")
}

func TestPurchaseRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.connect(t)

	for _, amount := range []string{"NaN", "Inf", "-Inf", "abc"} {
		w := env.do(t, http.MethodPost, "/purchase/cid1/pay", url.Values{"amount": {amount}}, cookie)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("amount %s: got %d", amount, w.Code)
		}
		expectBody(t, w, "Please enter a valid payment amount")
	}

	w := env.do(t, http.MethodPost, "/purchase/cid1/pay", url.Values{"amount": {"25"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("no buyer: got %d", w.Code)
	}
	expectBody(t, w, "Please enter your wallet address")

	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	if env.backend.purchases != 0 {
		t.Errorf("invalid input reached the backend %d times", env.backend.purchases)
	}
}

func TestPurchaseFreeDataset(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/purchase/cid3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "Open census", "This dataset is free", "Download Free", "/download/cid3?format=zip")
	if strings.Contains(w.Body.String(), `action="/purchase/cid3/pay"`) {
		t.Error("free dataset should not offer the payment form")
	}
}

func TestPurchaseLoadFailureOffersRetry(t *testing.T) {
	env := newTestEnv(t)
	env.backend.setMetadataErr(true)

	w := env.do(t, http.MethodGet, "/purchase/cid1", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("got %d", w.Code)
	}
	expectBody(t, w, "Purchase failed", "Dataset not found", `href="/purchase/cid1">Try again`)

	env.backend.setMetadataErr(false)
	w = env.do(t, http.MethodGet, "/purchase/cid1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("retry: got %d", w.Code)
	}
}

func TestSellRejectsNonFinitePrice(t *testing.T) {
	env := newTestEnv(t)
	for _, price := range []string{"NaN", "+Inf"} {
		w := env.do(t, http.MethodPost, "/sell", url.Values{"title": {"Sales"}, "uploader": {"alice"}, "category": {"Retail"}, "price": {price}})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("price %s: got %d", price, w.Code)
		}
		expectBody(t, w, "Please enter a valid price")
	}
}

func TestPurchaseUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.mu.Lock()
	env.backend.purchaseErr = true
	env.backend.mu.Unlock()

	w := env.do(t, http.MethodPost, "/purchase/cid1/pay", url.Values{"buyer": {service.DemoAddresses[1]}, "amount": {"25"}})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("got %d", w.Code)
	}
	expectBody(t, w, "Purchase failed", "Escrow contract unavailable", "Try again")
	if len(env.notifier.sales) != 0 {
		t.Error("failed purchase must not notify")
	}

	w = env.do(t, http.MethodGet, "/purchase/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing dataset: got %d", w.Code)
	}
}

func TestWalletPages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/wallet/history", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/wallet" {
		t.Fatalf("history without wallet: %d %q", w.Code, w.Header().Get("Location"))
	}

	w = env.do(t, http.MethodPost, "/wallet/connect", url.Values{"address": {"0x123"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid address: got %d", w.Code)
	}
	expectBody(t, w, "Please enter a valid wallet address")

	cookie := env.connect(t)
	w = env.do(t, http.MethodGet, "/wallet/history?status=pending", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("history: got %d: %s", w.Code, w.Body.String())
	}
	expectBody(t, w, "all (2)", "completed (1)", "pending (1)", "Sale", "tx2")
	if strings.Contains(w.Body.String(), `/transaction/tx1"`) {
		t.Error("pending tab should not list the completed transaction")
	}

	w = env.do(t, http.MethodPost, "/wallet/disconnect", nil, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("disconnect: got %d", w.Code)
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("disconnect should clear the session cookie")
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/nowhere", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d", w.Code)
	}
	expectBody(t, w, "Page not found")
}
