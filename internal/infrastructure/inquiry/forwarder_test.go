package inquiry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/ports"
)

func TestNew_DisabledWithoutURL(t *testing.T) {
	assert.Nil(t, New(config.InquiryConfig{}, nil))
}

func TestForwarder_Forward(t *testing.T) {
	var got ports.InquiryPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := New(config.InquiryConfig{WebhookURL: srv.URL}, nil)
	err := f.Forward(context.Background(), &ports.InquiryPayload{
		FormType:     "BekkerfineArt",
		Type:         "checkout",
		CustomerInfo: &ports.CustomerInfo{Name: "Emma", Email: "emma@example.com"},
		Items: []ports.InquiryItem{
			{ArtworkID: "w001", Title: "The Light is Gold", Price: 23500, Quantity: 1, Subtotal: 23500},
		},
		Total: 24500,
	})
	require.NoError(t, err)

	assert.Equal(t, "BekkerfineArt", got.FormType)
	assert.Equal(t, "checkout", got.Type)
	assert.Equal(t, "Emma", got.CustomerInfo.Name)
	assert.Equal(t, 24500.0, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "w001", got.Items[0].ArtworkID)
}

func TestInquiryPayload_ItemsUseArtworkIDKey(t *testing.T) {
	items := ports.NewInquiryItems([]entities.PricedLine{{
		CartLine: entities.CartLine{ID: "w001", Framing: entities.FramingDark, Quantity: 2},
		Title:    "The Light is Gold",
		Price:    24500,
		Subtotal: 49000,
	}})
	data, err := json.Marshal(&ports.InquiryPayload{FormType: "BekkerfineArt", Type: "checkout", Items: items})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	item := raw["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "w001", item["artworkId"])
	assert.NotContains(t, item, "id")
	assert.Equal(t, "Dark", item["framing"])
	assert.Equal(t, 2.0, item["quantity"])
	assert.NotContains(t, raw, "name")
}

func TestInquiryPayload_ContactShape(t *testing.T) {
	data, err := json.Marshal(&ports.InquiryPayload{
		FormType:  "BekkerfineArt",
		Type:      "contact",
		Name:      "Lerato",
		Email:     "lerato@example.com",
		Message:   "Do you take commissions?",
		Timestamp: "2026-01-01T00:00:00.000Z",
	})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Lerato", raw["name"])
	assert.Equal(t, "Do you take commissions?", raw["message"])
	assert.NotContains(t, raw, "customerInfo")
	assert.NotContains(t, raw, "items")
	assert.NotContains(t, raw, "total")
}

func TestForwarder_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(config.InquiryConfig{WebhookURL: srv.URL}, nil)
	err := f.Forward(context.Background(), &ports.InquiryPayload{Type: "checkout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
