package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekkerfineart/gallery/internal/adapters/repository"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/events"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/payfast"
	"github.com/bekkerfineart/gallery/internal/ports"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Bekker Fine Art", Version: "test"},
		Admin: config.AdminConfig{
			Username:  "admin",
			Password:  "bekker2024",
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
			Issuer:    "bekker-gallery",
		},
		PayFast: config.PayFastConfig{
			MerchantID:       "10000100",
			MerchantKey:      "46f0cd694581a",
			Passphrase:       "jt7NOE43FZPn",
			NotifyMerchantID: "10000100",
			NotifyPassphrase: "jt7NOE43FZPn",
			ProcessURL:       "https://sandbox.payfast.co.za/eng/process",
		},
		Inquiry: config.InquiryConfig{FormType: "BekkerfineArt"},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  1000,
			RateLimitWindow:    time.Minute,
			MaxUploadSize:      10 * 1024 * 1024,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

type testServer struct {
	*Server
	store *repository.Store
	hub   *events.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()
	hub := events.NewHub(log)
	store := repository.NewStore(repository.Options{Dir: t.TempDir(), Logger: log, Publisher: hub})

	s, err := New(testConfig(), store, hub, log)
	require.NoError(t, err)
	return &testServer{Server: s, store: store, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/admin/login", ports.LoginRequest{Username: "admin", Password: "bekker2024"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ports.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ready", nil, "").Code)

	rec := s.do(t, http.MethodGet, "/health/detailed", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/artworks", nil, "")

	rec := s.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "gallery_store_writes_total")
}

func TestPublicReads(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/artworks", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	artworks := decode[[]entities.Artwork](t, rec)
	assert.Len(t, artworks, 3)

	for _, path := range []string{"/api/hero-slides", "/api/content", "/api/collage", "/api/settings"} {
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, "").Code, path)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/sales", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing authorization header", decode[map[string]string](t, rec)["error"])

	rec = s.do(t, http.MethodPost, "/api/artworks", entities.Artwork{Title: "x"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/login", ports.LoginRequest{Username: "admin", Password: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestArtworkLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/artworks", entities.Artwork{
		ID:     "w100",
		Title:  "Karoo Morning",
		Price:  12000,
		Status: entities.ArtworkStatusAvailable,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[struct {
		Success bool             `json:"success"`
		Artwork entities.Artwork `json:"artwork"`
	}](t, rec)
	assert.True(t, created.Success)
	assert.Equal(t, "w100", created.Artwork.ID)

	rec = s.do(t, http.MethodPost, "/api/artworks", entities.Artwork{ID: "w100", Title: "Again", Status: entities.ArtworkStatusAvailable}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	created.Artwork.Price = 13000
	rec = s.do(t, http.MethodPut, "/api/artworks", created.Artwork, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/artworks", entities.Artwork{ID: "w404", Title: "Ghost", Status: entities.ArtworkStatusAvailable}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/artworks", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Artwork ID required", decode[map[string]string](t, rec)["error"])

	rec = s.do(t, http.MethodDelete, "/api/artworks?id=w100", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/artworks/reset", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "Artworks reset to initial state", reset["message"])
	assert.Len(t, reset["artworks"], 3)
}

func TestRecordSale(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/sales/record", ports.RecordSaleRequest{
		ArtworkID:    "w001",
		SaleDate:     "2025-03-01",
		SalePrice:    23500,
		CustomerName: "Naledi",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	artwork, err := s.store.Artworks.GetByID(context.Background(), "w001")
	require.NoError(t, err)
	assert.Equal(t, entities.ArtworkStatusSold, artwork.Status)

	rec = s.do(t, http.MethodGet, "/api/sales", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]entities.Sale](t, rec), 3)

	rec = s.do(t, http.MethodGet, "/api/activities", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[[]ports.ActivityEntry](t, rec)
	require.Len(t, feed, 2)
	assert.Equal(t, entities.ActivityArtworkSold, feed[0].Type)
	assert.Equal(t, "Just now", feed[0].TimeAgo)
}

func TestContacts(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/contacts", map[string]string{
		"name":    "Pieter",
		"email":   "not-an-email",
		"message": "Hi",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/contacts", map[string]string{
		"name":    "Pieter",
		"email":   "pieter@example.com",
		"message": "Is Ocean Dreams still available?",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPatch, "/api/contacts/contact001", map[string]string{"status": "archived"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/contacts/missing/read", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/contacts", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	contacts := decode[[]entities.ContactMessage](t, rec)
	require.Len(t, contacts, 3)
	assert.Equal(t, "Pieter", contacts[0].Name)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPut, "/api/settings", `{"currency":"USD"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/settings", nil, "")
	assert.Equal(t, "USD", decode[entities.Settings](t, rec).Currency)

	rec = s.do(t, http.MethodPut, "/api/settings", `{"currency":"BTC"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/settings", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/settings", nil, "")
	assert.Equal(t, "ZAR", decode[entities.Settings](t, rec).Currency)
}

func TestCheckoutAndQuote(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/cart/quote", `{"items":[{"id":"w001","framing":"Light","quantity":1}]}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 24500.0, decode[entities.Quote](t, rec).Total)

	rec = s.do(t, http.MethodPost, "/api/cart/quote", `{"items":[{"id":"w002","framing":null,"quantity":1}]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/checkout", ports.CheckoutRequest{
		CustomerInfo: ports.CustomerInfo{Name: "Ayanda", Email: "ayanda@example.com"},
		Items:        []entities.CartLine{{ID: "w001", Quantity: 1}},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ports.CheckoutResponse](t, rec)
	assert.Equal(t, entities.ContactTypePurchaseInquiry, resp.Contact.Type)
}

func TestPayment(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/payment", map[string]interface{}{"firstName": "A"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decode[map[string]string](t, rec)["error"])

	rec = s.do(t, http.MethodPost, "/api/payment", ports.PaymentRequest{
		FirstName: "Ayanda",
		LastName:  "Dlamini",
		Email:     "ayanda@example.com",
		Amount:    23500,
		ItemName:  "The Light is Gold",
		PaymentID: "BFA-9",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ports.PaymentResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "23500.00", resp.PaymentData["amount"])

	rec = s.do(t, http.MethodPost, "/api/payment", map[string]interface{}{
		"firstName": "Ayanda",
		"lastName":  "Dlamini",
		"email":     "ayanda@example.com",
		"amount":    "23500",
		"itemName":  "The Light is Gold",
		"paymentId": "BFA-10",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "23500.00", decode[ports.PaymentResponse](t, rec).PaymentData["amount"])
}

func postForm(s *testServer, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPaymentNotify(t *testing.T) {
	s := newTestServer(t)

	fields := map[string]string{
		"merchant_id":    "10000100",
		"m_payment_id":   "BFA-9",
		"pf_payment_id":  "1089250",
		"payment_status": "COMPLETE",
		"item_name":      "The Light is Gold",
		"amount_gross":   "23500.00",
	}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	form.Set("signature", payfast.NotificationSignature(fields, "jt7NOE43FZPn"))

	rec := postForm(s, form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "OK", decode[map[string]string](t, rec)["status"])

	form.Set("signature", "0000")
	rec = postForm(s, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid signature", decode[map[string]string](t, rec)["error"])
}

func TestUploadInline(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	upload := func(contentType string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="art.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(data)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := upload("image/png", []byte("png"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ports.UploadResponse](t, rec)
	assert.Equal(t, "local-base64", resp.Storage)
	assert.Equal(t, "data:image/png;base64,cG5n", resp.URL)

	rec = upload("text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid file type", decode[map[string]string](t, rec)["error"])
}

func TestChangeFeed(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	rec := s.do(t, http.MethodDelete, "/api/sales?id=sale001", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg events.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != events.MessageTypeChange {
			continue
		}
		var ev ports.ChangeEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		if ev.Collection == "sales" && ev.Action == ports.ChangeDelete {
			assert.Equal(t, "sale001", ev.ID)
			return
		}
	}
}
