package entities

import (
	"fmt"

	"github.com/goccy/go-json"
)

// FramingPrice is the flat framing add-on per painting, in ZAR.
const FramingPrice = 1000

// Framing is the optional frame colour of a cart line. The empty value means no frame
// and is encoded as JSON null.
type Framing string

const (
	FramingNone   Framing = ""
	FramingLight  Framing = "Light"
	FramingMedium Framing = "Medium"
	FramingDark   Framing = "Dark"
)

// IsValid reports whether f is a known framing option
func (f Framing) IsValid() bool {
	switch f {
	case FramingNone, FramingLight, FramingMedium, FramingDark:
		return true
	}
	return false
}

// Cost returns the framing surcharge for one unit
func (f Framing) Cost() float64 {
	if f == FramingNone {
		return 0
	}
	return FramingPrice
}

func (f Framing) MarshalJSON() ([]byte, error) {
	if f == FramingNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

func (f *Framing) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FramingNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Framing(s).IsValid() {
		return fmt.Errorf("unknown framing %q", s)
	}
	*f = Framing(s)
	return nil
}

// CartLine is one row of a shopping cart, keyed by artwork id and framing
type CartLine struct {
	ID        string  `json:"id" validate:"required"`
	Framing   Framing `json:"framing"`
	Quantity  int     `json:"quantity" validate:"min=1"`
	DateAdded string  `json:"dateAdded,omitempty"`
}

// Cart is an ordered list of lines
type Cart struct {
	Lines []CartLine `json:"items" validate:"dive"`
}

// Add puts one unit of the artwork into the cart. A line with the same artwork and
// framing is incremented instead of duplicated.
func (c *Cart) Add(id string, framing Framing, dateAdded string) {
	for i := range c.Lines {
		if c.Lines[i].ID == id && c.Lines[i].Framing == framing {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{ID: id, Framing: framing, Quantity: 1, DateAdded: dateAdded})
}

// Remove drops the line matching id and framing
func (c *Cart) Remove(id string, framing Framing) {
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ID == id && line.Framing == framing {
			continue
		}
		kept = append(kept, line)
	}
	c.Lines = kept
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (c *Cart) UpdateQuantity(id string, framing Framing, quantity int) {
	if quantity <= 0 {
		c.Remove(id, framing)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ID == id && c.Lines[i].Framing == framing {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

// ItemCount is the total number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// PricedLine is a cart line resolved against the inventory
type PricedLine struct {
	CartLine
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

// Quote is the priced view of a cart
type Quote struct {
	Lines     []PricedLine `json:"items"`
	Total     float64      `json:"total"`
	ItemCount int          `json:"itemCount"`
}

// Price resolves every line against the inventory. Lines referring to unknown artworks
// fail with ErrArtworkNotFound, sold ones with ErrArtworkUnavailable.
func (c *Cart) Price(inventory []Artwork) (*Quote, error) {
	if len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	byID := make(map[string]*Artwork, len(inventory))
	for i := range inventory {
		byID[inventory[i].ID] = &inventory[i]
	}

	quote := &Quote{Lines: make([]PricedLine, 0, len(c.Lines))}
	for _, line := range c.Lines {
		art, ok := byID[line.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrArtworkNotFound, line.ID)
		}
		if !art.IsAvailable() {
			return nil, fmt.Errorf("%w: %s", ErrArtworkUnavailable, art.Title)
		}
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		subtotal := (art.Price + line.Framing.Cost()) * float64(qty)
		quote.Lines = append(quote.Lines, PricedLine{
			CartLine: CartLine{ID: line.ID, Framing: line.Framing, Quantity: qty, DateAdded: line.DateAdded},
			Title:    art.Title,
			Price:    art.Price,
			Subtotal: subtotal,
		})
		quote.Total += subtotal
		quote.ItemCount += qty
	}
	return quote, nil
}

// ArtworkIDs lists the artwork ids of the quote in line order
func (q *Quote) ArtworkIDs() []string {
	ids := make([]string, 0, len(q.Lines))
	for _, line := range q.Lines {
		ids = append(ids, line.ID)
	}
	return ids
}
