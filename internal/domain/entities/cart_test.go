package entities

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart(t *testing.T) {
	t.Run("add merges same artwork and framing", func(t *testing.T) {
		var c Cart
		c.Add("w001", FramingNone, "")
		c.Add("w001", FramingNone, "")
		c.Add("w001", FramingDark, "")

		require.Len(t, c.Lines, 2)
		assert.Equal(t, 2, c.Lines[0].Quantity)
		assert.Equal(t, 1, c.Lines[1].Quantity)
		assert.Equal(t, 3, c.ItemCount())
	})

	t.Run("update quantity to zero removes the line", func(t *testing.T) {
		var c Cart
		c.Add("w001", FramingLight, "")
		c.Add("w004", FramingNone, "")
		c.UpdateQuantity("w001", FramingLight, 0)

		require.Len(t, c.Lines, 1)
		assert.Equal(t, "w004", c.Lines[0].ID)

		c.UpdateQuantity("w004", FramingNone, 5)
		assert.Equal(t, 5, c.ItemCount())
	})

	t.Run("remove only touches the matching framing", func(t *testing.T) {
		var c Cart
		c.Add("w001", FramingLight, "")
		c.Add("w001", FramingMedium, "")
		c.Remove("w001", FramingLight)

		require.Len(t, c.Lines, 1)
		assert.Equal(t, FramingMedium, c.Lines[0].Framing)
	})
}

func TestCartPrice(t *testing.T) {
	inventory := SeedArtworks()
	inventory = append(inventory, Artwork{ID: "w010", Title: "Clay Bowl", Price: 1500, Status: ArtworkStatusAvailable})

	t.Run("framing adds a flat fee per unit", func(t *testing.T) {
		c := Cart{Lines: []CartLine{
			{ID: "w001", Framing: FramingDark, Quantity: 1},
			{ID: "w010", Framing: FramingNone, Quantity: 2},
		}}

		quote, err := c.Price(inventory)
		require.NoError(t, err)

		assert.Equal(t, float64(24500), quote.Lines[0].Subtotal)
		assert.Equal(t, float64(3000), quote.Lines[1].Subtotal)
		assert.Equal(t, float64(27500), quote.Total)
		assert.Equal(t, 3, quote.ItemCount)
		assert.Equal(t, []string{"w001", "w010"}, quote.ArtworkIDs())
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := (&Cart{}).Price(inventory)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("unknown artwork", func(t *testing.T) {
		c := Cart{Lines: []CartLine{{ID: "nope", Quantity: 1}}}
		_, err := c.Price(inventory)
		assert.ErrorIs(t, err, ErrArtworkNotFound)
	})

	t.Run("sold artwork", func(t *testing.T) {
		c := Cart{Lines: []CartLine{{ID: "w002", Quantity: 1}}}
		_, err := c.Price(inventory)
		assert.ErrorIs(t, err, ErrArtworkUnavailable)
	})
}

func TestFramingJSON(t *testing.T) {
	var line CartLine
	require.NoError(t, json.Unmarshal([]byte(`{"id":"w001","framing":null,"quantity":1}`), &line))
	assert.Equal(t, FramingNone, line.Framing)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"w001","framing":"Dark","quantity":1}`), &line))
	assert.Equal(t, FramingDark, line.Framing)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"w001","framing":"Gold","quantity":1}`), &line))

	out, err := json.Marshal(CartLine{ID: "w001", Quantity: 1})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"framing":null`)
}

func TestMergeSettings(t *testing.T) {
	s, err := MergeSettings([]byte(`{"theme":"dark","maxImageSize":10}`))
	require.NoError(t, err)

	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, 10, s.MaxImageSize)
	assert.Equal(t, "ZAR", s.Currency)
	assert.True(t, s.AutoSave)

	s, err = MergeSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	_, err = MergeSettings([]byte(`{`))
	assert.Error(t, err)
}

func TestNewSaleID(t *testing.T) {
	now := time.UnixMilli(1734220800000)
	id := NewSaleID(now, rand.New(rand.NewSource(1)))
	assert.Regexp(t, `^sale1734220800000\d{3}$`, id)
}

func TestNewArtworkID(t *testing.T) {
	assert.Equal(t, "w1734220800000", NewArtworkID(time.UnixMilli(1734220800000)))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", TimeAgo(now, now.Add(-30*time.Second)))
	assert.Equal(t, "5 minutes ago", TimeAgo(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "3 hours ago", TimeAgo(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "2 days ago", TimeAgo(now, now.Add(-48*time.Hour)))
	assert.Equal(t, "2025/05/01", TimeAgo(now, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestArtworkMarkSold(t *testing.T) {
	art := SeedArtworks()[0]
	art.MarkSold(&Sale{SaleDate: "2025-01-02", SalePrice: 22000, CustomerName: "Ann", CustomerEmail: "ann@example.com", Notes: "gift"})

	assert.Equal(t, ArtworkStatusSold, art.Status)
	require.NotNil(t, art.SoldPrice)
	assert.Equal(t, float64(22000), *art.SoldPrice)
	assert.Equal(t, "Ann", art.CustomerName)
	assert.Equal(t, "gift", art.SaleNotes)
}
