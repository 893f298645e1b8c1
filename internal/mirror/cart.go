package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
)

// The cart lives only in the mirror, stored as the bare list of lines under KeyCart.

// Cart returns the local shopping cart. A missing or unreadable cart is empty.
func (c *Client) Cart() (entities.Cart, error) {
	data, ok, err := c.mirror.Get(KeyCart)
	if err != nil {
		return entities.Cart{}, err
	}
	return c.decodeCart(data, ok), nil
}

func (c *Client) decodeCart(data []byte, ok bool) entities.Cart {
	cart := entities.Cart{Lines: []entities.CartLine{}}
	if !ok {
		return cart
	}
	if err := json.Unmarshal(data, &cart.Lines); err != nil {
		c.logger.Warnw("Stored cart is not decodable, starting empty", "error", err.Error())
		return entities.Cart{Lines: []entities.CartLine{}}
	}
	if cart.Lines == nil {
		cart.Lines = []entities.CartLine{}
	}
	return cart
}

func (c *Client) editCart(edit func(*entities.Cart)) (entities.Cart, error) {
	var cart entities.Cart
	err := c.mirror.Update(KeyCart, func(current []byte, ok bool) ([]byte, error) {
		cart = c.decodeCart(current, ok)
		edit(&cart)
		if cart.Lines == nil {
			cart.Lines = []entities.CartLine{}
		}
		return json.Marshal(cart.Lines)
	})
	return cart, err
}

// AddToCart adds one unit of the artwork with the given framing
func (c *Client) AddToCart(id string, framing entities.Framing) (entities.Cart, error) {
	if id == "" {
		return entities.Cart{}, entities.ErrMissingID
	}
	if !framing.IsValid() {
		return entities.Cart{}, fmt.Errorf("unknown framing %q", framing)
	}
	return c.editCart(func(cart *entities.Cart) {
		cart.Add(id, framing, entities.Timestamp(time.Now()))
	})
}

func (c *Client) RemoveFromCart(id string, framing entities.Framing) (entities.Cart, error) {
	return c.editCart(func(cart *entities.Cart) { cart.Remove(id, framing) })
}

// UpdateCartQuantity sets the quantity of a line; zero or less removes it
func (c *Client) UpdateCartQuantity(id string, framing entities.Framing, quantity int) (entities.Cart, error) {
	return c.editCart(func(cart *entities.Cart) { cart.UpdateQuantity(id, framing, quantity) })
}

func (c *Client) ClearCart() error {
	return c.mirror.Remove(KeyCart)
}

// QuoteCart prices the local cart. The API prices it when reachable; otherwise it is
// priced against the artworks the mirror (or the seed) holds. Rejections from the
// API, such as a sold artwork, are returned as they are.
func (c *Client) QuoteCart(ctx context.Context) (*entities.Quote, Source, error) {
	cart, err := c.Cart()
	if err != nil {
		return nil, "", err
	}
	if len(cart.Lines) == 0 {
		return nil, "", entities.ErrEmptyCart
	}

	var quote entities.Quote
	err = c.do(ctx, http.MethodPost, "/api/cart/quote", cart, &quote)
	if err == nil {
		return &quote, SourceAPI, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		return nil, SourceAPI, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}

	c.logger.Warnw("Quote request failed, pricing locally", "error", err.Error())
	artworks, source, err := c.Artworks(ctx)
	if err != nil {
		return nil, source, err
	}
	local, err := cart.Price(artworks)
	return local, source, err
}
