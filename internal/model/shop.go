package model

import "time"

// Category groups products.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// CategoryColumns is the column order of the categories table.
var CategoryColumns = []string{"id", "name", "description"}

func (c Category) PrimaryKey() int64 { return c.ID }

func (c Category) ToRow() Row {
	return Row{c.ID, c.Name, encodeOptional(c.Description)}
}

// CategoryFromRow decodes a categories row.
func CategoryFromRow(row Row) (Category, error) {
	r := newRowReader("category", CategoryColumns, row)
	c := Category{
		ID:          r.int64(),
		Name:        r.string(),
		Description: r.string(),
	}
	return c, r.err
}

// Product is a sellable item. CategoryID 0 means uncategorised.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price" validate:"gte=0"`
	Stock       int       `json:"stock" validate:"gte=0"`
	CategoryID  int64     `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductColumns is the column order of the products table.
var ProductColumns = []string{"id", "name", "description", "price", "stock", "category_id", "created_at"}

func (p Product) PrimaryKey() int64 { return p.ID }

func (p Product) ToRow() Row {
	return Row{
		p.ID,
		p.Name,
		encodeOptional(p.Description),
		p.Price,
		int64(p.Stock),
		encodeOptionalID(p.CategoryID),
		encodeTimestamp(p.CreatedAt),
	}
}

// Available reports whether the product can be ordered at all.
// Availability is derived from stock and never stored.
func (p Product) Available() bool {
	return p.Stock > 0
}

// ProductFromRow decodes a products row.
func ProductFromRow(row Row) (Product, error) {
	r := newRowReader("product", ProductColumns, row)
	p := Product{
		ID:          r.int64(),
		Name:        r.string(),
		Description: r.string(),
		Price:       r.float(),
		Stock:       r.int(),
		CategoryID:  r.int64(),
		CreatedAt:   r.timestamp(),
	}
	return p, r.err
}

// Order is a placed order. Items is materialised by reads that promise it
// and is not part of the orders row.
type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id" validate:"required"`
	TotalAmount     float64     `json:"total_amount" validate:"gte=0"`
	ShippingAddress string      `json:"shipping_address" validate:"required"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderColumns is the column order of the orders table.
var OrderColumns = []string{"id", "user_id", "total_amount", "shipping_address", "created_at"}

func (o Order) PrimaryKey() int64 { return o.ID }

func (o Order) ToRow() Row {
	return Row{o.ID, o.UserID, o.TotalAmount, o.ShippingAddress, encodeTimestamp(o.CreatedAt)}
}

// OrderFromRow decodes an orders row. Items is left empty.
func OrderFromRow(row Row) (Order, error) {
	r := newRowReader("order", OrderColumns, row)
	o := Order{
		ID:              r.int64(),
		UserID:          r.int64(),
		TotalAmount:     r.float(),
		ShippingAddress: r.string(),
		CreatedAt:       r.timestamp(),
	}
	return o, r.err
}

// OrderItem is one line of an Order. PriceAtPurchase is the unit price
// captured when the order was placed.
type OrderItem struct {
	ID              int64   `json:"id"`
	OrderID         int64   `json:"order_id" validate:"required"`
	ProductID       int64   `json:"product_id" validate:"required"`
	Quantity        int     `json:"quantity" validate:"min=1"`
	PriceAtPurchase float64 `json:"price_at_purchase" validate:"gte=0"`
}

// OrderItemColumns is the column order of the order_items table.
var OrderItemColumns = []string{"id", "order_id", "product_id", "quantity", "price_at_purchase"}

func (i OrderItem) PrimaryKey() int64 { return i.ID }

func (i OrderItem) ToRow() Row {
	return Row{i.ID, i.OrderID, i.ProductID, int64(i.Quantity), i.PriceAtPurchase}
}

// Subtotal is the line amount at purchase time.
func (i OrderItem) Subtotal() float64 {
	return i.PriceAtPurchase * float64(i.Quantity)
}

// OrderItemFromRow decodes an order_items row.
func OrderItemFromRow(row Row) (OrderItem, error) {
	r := newRowReader("order item", OrderItemColumns, row)
	i := OrderItem{
		ID:              r.int64(),
		OrderID:         r.int64(),
		ProductID:       r.int64(),
		Quantity:        r.int(),
		PriceAtPurchase: r.float(),
	}
	return i, r.err
}

// Review is a user's rating of a product.
type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id" validate:"required"`
	ProductID int64     `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewColumns is the column order of the reviews table.
var ReviewColumns = []string{"id", "user_id", "product_id", "rating", "comment", "created_at"}

func (r Review) PrimaryKey() int64 { return r.ID }

func (r Review) ToRow() Row {
	return Row{r.ID, r.UserID, r.ProductID, int64(r.Rating), encodeOptional(r.Comment), encodeTimestamp(r.CreatedAt)}
}

// ReviewFromRow decodes a reviews row.
func ReviewFromRow(row Row) (Review, error) {
	rr := newRowReader("review", ReviewColumns, row)
	r := Review{
		ID:        rr.int64(),
		UserID:    rr.int64(),
		ProductID: rr.int64(),
		Rating:    rr.int(),
		Comment:   rr.string(),
		CreatedAt: rr.timestamp(),
	}
	return r, rr.err
}
