package repo

import (
	"context"

	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/store"
)

// Categories stores product categories.
type Categories struct {
	t table[model.Category]
}

// NewCategories returns the categories repository over s.
func NewCategories(s *store.Store) *Categories {
	return &Categories{t: newTable(s, "categories", "category", model.CategoryColumns, model.CategoryFromRow)}
}

// Add inserts c and assigns c.ID.
func (r *Categories) Add(ctx context.Context, c *model.Category) (int64, error) {
	c.Name = clean(c.Name)
	c.Description = nfc(c.Description)
	if err := check("category", c); err != nil {
		return 0, err
	}
	id, err := r.t.insert(ctx, *c)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// Get returns the category with id, or found=false.
func (r *Categories) Get(ctx context.Context, id int64) (model.Category, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the categories matching f in id order.
func (r *Categories) List(ctx context.Context, f Filter) ([]model.Category, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored category with c.
func (r *Categories) Update(ctx context.Context, c *model.Category) error {
	if err := requireID("category", c.ID); err != nil {
		return err
	}
	c.Name = clean(c.Name)
	c.Description = nfc(c.Description)
	if err := check("category", c); err != nil {
		return err
	}
	return r.t.update(ctx, *c)
}

// Delete removes the category. Products still in the category make this a
// ConstraintViolation.
func (r *Categories) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Products stores sellable items. Stock is never negative.
type Products struct {
	t     table[model.Product]
	clock collab.Clock
}

// NewProducts returns the products repository over s.
func NewProducts(s *store.Store, clock collab.Clock) *Products {
	return &Products{t: newTable(s, "products", "product", model.ProductColumns, model.ProductFromRow), clock: clock}
}

// Add inserts p and assigns p.ID.
func (r *Products) Add(ctx context.Context, p *model.Product) (int64, error) {
	p.Name = clean(p.Name)
	p.Description = nfc(p.Description)
	if err := check("product", p); err != nil {
		return 0, err
	}
	rec := *p
	rec.CreatedAt = model.Stamp(r.clock.Now())
	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*p = rec
	return id, nil
}

// Get returns the product with id, or found=false.
func (r *Products) Get(ctx context.Context, id int64) (model.Product, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the products matching f in id order.
func (r *Products) List(ctx context.Context, f Filter) ([]model.Product, error) {
	return r.t.list(ctx, f)
}

// Update rewrites p. CreatedAt keeps its stored value.
func (r *Products) Update(ctx context.Context, p *model.Product) error {
	if err := requireID("product", p.ID); err != nil {
		return err
	}
	p.Name = clean(p.Name)
	p.Description = nfc(p.Description)
	if err := check("product", p); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, p.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("product", p.ID)
	}
	rec := *p
	rec.CreatedAt = current.CreatedAt
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*p = rec
	return nil
}

// Delete removes the product. Order items or reviews that name the product
// make this a ConstraintViolation.
func (r *Products) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Orders stores order headers. Line items live in OrderItems; placing an
// order with items and stock changes is a transactional action.
type Orders struct {
	t     table[model.Order]
	clock collab.Clock
}

// NewOrders returns the orders repository over s.
func NewOrders(s *store.Store, clock collab.Clock) *Orders {
	return &Orders{t: newTable(s, "orders", "order", model.OrderColumns, model.OrderFromRow), clock: clock}
}

// Add inserts the order header. o.Items is ignored.
func (r *Orders) Add(ctx context.Context, o *model.Order) (int64, error) {
	o.ShippingAddress = clean(o.ShippingAddress)
	if err := check("order", o); err != nil {
		return 0, err
	}
	rec := *o
	rec.CreatedAt = model.Stamp(r.clock.Now())
	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*o = rec
	return id, nil
}

// Get returns the order header without items.
func (r *Orders) Get(ctx context.Context, id int64) (model.Order, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the orders matching f in id order.
func (r *Orders) List(ctx context.Context, f Filter) ([]model.Order, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored order with o.
func (r *Orders) Update(ctx context.Context, o *model.Order) error {
	if err := requireID("order", o.ID); err != nil {
		return err
	}
	o.ShippingAddress = clean(o.ShippingAddress)
	if err := check("order", o); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, o.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("order", o.ID)
	}
	rec := *o
	rec.CreatedAt = current.CreatedAt
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*o = rec
	return nil
}

// Delete removes the header. Remaining line items make this a
// ConstraintViolation.
func (r *Orders) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// OrderItems stores order lines.
type OrderItems struct {
	t table[model.OrderItem]
}

// NewOrderItems returns the order_items repository over s.
func NewOrderItems(s *store.Store) *OrderItems {
	return &OrderItems{t: newTable(s, "order_items", "order item", model.OrderItemColumns, model.OrderItemFromRow)}
}

// Add inserts i and assigns i.ID.
func (r *OrderItems) Add(ctx context.Context, i *model.OrderItem) (int64, error) {
	if err := check("order item", i); err != nil {
		return 0, err
	}
	id, err := r.t.insert(ctx, *i)
	if err != nil {
		return 0, err
	}
	i.ID = id
	return id, nil
}

// Get returns the order item with id, or found=false.
func (r *OrderItems) Get(ctx context.Context, id int64) (model.OrderItem, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the order items matching f in id order.
func (r *OrderItems) List(ctx context.Context, f Filter) ([]model.OrderItem, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored order item with i.
func (r *OrderItems) Update(ctx context.Context, i *model.OrderItem) error {
	if err := requireID("order item", i.ID); err != nil {
		return err
	}
	if err := check("order item", i); err != nil {
		return err
	}
	return r.t.update(ctx, *i)
}

// Delete removes the order item.
func (r *OrderItems) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Reviews stores product ratings.
type Reviews struct {
	t     table[model.Review]
	clock collab.Clock
}

// NewReviews returns the reviews repository over s.
func NewReviews(s *store.Store, clock collab.Clock) *Reviews {
	return &Reviews{t: newTable(s, "reviews", "review", model.ReviewColumns, model.ReviewFromRow), clock: clock}
}

// Add inserts rv and assigns rv.ID.
func (r *Reviews) Add(ctx context.Context, rv *model.Review) (int64, error) {
	rv.Comment = nfc(rv.Comment)
	if err := check("review", rv); err != nil {
		return 0, err
	}
	rec := *rv
	rec.CreatedAt = model.Stamp(r.clock.Now())
	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*rv = rec
	return id, nil
}

// Get returns the review with id, or found=false.
func (r *Reviews) Get(ctx context.Context, id int64) (model.Review, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the reviews matching f in id order.
func (r *Reviews) List(ctx context.Context, f Filter) ([]model.Review, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the stored review with rv.
func (r *Reviews) Update(ctx context.Context, rv *model.Review) error {
	if err := requireID("review", rv.ID); err != nil {
		return err
	}
	rv.Comment = nfc(rv.Comment)
	if err := check("review", rv); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, rv.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("review", rv.ID)
	}
	rec := *rv
	rec.CreatedAt = current.CreatedAt
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*rv = rec
	return nil
}

// Delete removes the review.
func (r *Reviews) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}
