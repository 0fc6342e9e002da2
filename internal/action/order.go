package action

import (
	"context"
	"errors"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/stats"
	"github.com/roach88/recordstore/internal/store"
)

// Line is one requested (product, quantity) pair.
type Line struct {
	ProductID int64 `json:"product_id" yaml:"product_id"`
	Quantity  int   `json:"quantity" yaml:"quantity"`
}

// PlaceOrder creates an order for userID with one item per line and
// decrements stock, all in one transaction.
//
// Every line is checked before anything is written: a line asking for
// more than the product's stock fails the whole call with
// InsufficientStock. Item prices are the product prices read here, and
// the order total is computed from them. Lines naming the same product
// are checked against their combined quantity.
func (a *Actions) PlaceOrder(ctx context.Context, userID int64, address string, lines []Line) (model.Order, error) {
	if err := checkLines(lines); err != nil {
		return model.Order{}, err
	}
	var order model.Order
	err := a.s.Transaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = a.placeOrder(ctx, userID, address, lines)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}

// PlaceOrderInTx is PlaceOrder for callers that already hold a
// transaction, such as dataset seeding. It fails unless one is active.
func (a *Actions) PlaceOrderInTx(ctx context.Context, userID int64, address string, lines []Line) (model.Order, error) {
	if !a.s.InTransaction() {
		return model.Order{}, errNoTransaction
	}
	if err := checkLines(lines); err != nil {
		return model.Order{}, err
	}
	return a.placeOrder(ctx, userID, address, lines)
}

var errNoTransaction = errors.New("no active transaction")

func checkLines(lines []Line) error {
	if len(lines) == 0 {
		return store.NewValidationError("order", "items", "must not be empty")
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return store.NewValidationError("order item", "quantity", "must be at least 1")
		}
	}
	return nil
}

func (a *Actions) placeOrder(ctx context.Context, userID int64, address string, lines []Line) (model.Order, error) {
	products, err := a.products(ctx, lines)
	if err != nil {
		return model.Order{}, err
	}

	wanted := make(map[int64]int)
	var touched []int64
	for _, l := range lines {
		if _, seen := wanted[l.ProductID]; !seen {
			touched = append(touched, l.ProductID)
		}
		wanted[l.ProductID] += l.Quantity
	}
	for _, id := range touched {
		if p := products[id]; p.Stock < wanted[id] {
			return model.Order{}, store.NewInsufficientStockError(id, wanted[id], p.Stock)
		}
	}

	cart := make([]stats.CartLine, len(lines))
	for i, l := range lines {
		cart[i] = stats.CartLine{ProductID: l.ProductID, UnitPrice: products[l.ProductID].Price, Quantity: l.Quantity}
	}

	o := model.Order{UserID: userID, TotalAmount: stats.CartTotal(cart), ShippingAddress: address}
	if _, err := a.repos.Orders.Add(ctx, &o); err != nil {
		return model.Order{}, err
	}

	o.Items = make([]model.OrderItem, 0, len(lines))
	for _, c := range cart {
		item := model.OrderItem{OrderID: o.ID, ProductID: c.ProductID, Quantity: c.Quantity, PriceAtPurchase: c.UnitPrice}
		if _, err := a.repos.OrderItems.Add(ctx, &item); err != nil {
			return model.Order{}, err
		}
		o.Items = append(o.Items, item)
	}

	for _, id := range touched {
		if err := a.adjustStock(ctx, id, -wanted[id]); err != nil {
			return model.Order{}, err
		}
	}
	return o, nil
}

// PreviewCart prices lines at current product prices without writing.
func (a *Actions) PreviewCart(ctx context.Context, lines []Line) ([]stats.CartLine, float64, error) {
	cart := make([]stats.CartLine, 0, len(lines))
	for _, l := range lines {
		p, found, err := a.repos.Products.Get(ctx, l.ProductID)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			return nil, 0, store.NewNotFoundError("product", l.ProductID)
		}
		cart = append(cart, stats.CartLine{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Quantity: l.Quantity})
	}
	return cart, stats.CartTotal(cart), nil
}

// Restock adds delta (which may be negative) to a product's stock. Stock
// never drops below zero; a delta that would do so is InsufficientStock.
func (a *Actions) Restock(ctx context.Context, productID int64, delta int) (model.Product, error) {
	var p model.Product
	err := a.s.Transaction(ctx, func(ctx context.Context) error {
		if err := a.adjustStock(ctx, productID, delta); err != nil {
			return err
		}
		got, _, err := a.repos.Products.Get(ctx, productID)
		p = got
		return err
	})
	return p, err
}

// products loads every product named by lines.
func (a *Actions) products(ctx context.Context, lines []Line) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(lines))
	for _, l := range lines {
		if _, ok := out[l.ProductID]; ok {
			continue
		}
		p, found, err := a.repos.Products.Get(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, store.NewNotFoundError("product", l.ProductID)
		}
		out[l.ProductID] = p
	}
	return out, nil
}

func (a *Actions) adjustStock(ctx context.Context, productID int64, delta int) error {
	p, found, err := a.repos.Products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("product", productID)
	}
	if p.Stock+delta < 0 {
		return store.NewInsufficientStockError(productID, -delta, p.Stock)
	}
	p.Stock += delta
	return a.repos.Products.Update(ctx, &p)
}
