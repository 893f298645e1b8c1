package ports

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Amount
	}{
		{"number", `{"amount":24500}`, 24500},
		{"fraction", `{"amount":99.5}`, 99.5},
		{"string", `{"amount":"24500.00"}`, 24500},
		{"empty string", `{"amount":""}`, 0},
		{"null", `{"amount":null}`, 0},
		{"missing", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req PaymentRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Amount)
		})
	}

	var req PaymentRequest
	assert.Error(t, json.Unmarshal([]byte(`{"amount":"lots"}`), &req))
}
