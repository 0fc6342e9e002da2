package query

import (
	"context"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/querysql"
)

// OrdersByUser returns the user's orders, each with its line items
// materialised. One LEFT JOIN fetches headers and lines together; orders
// come back in insertion order and items in insertion order within each.
func (q *Queries) OrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return q.ordersWhere(ctx, querysql.Eq{Column: "o.user_id", Value: userID})
}

// Order returns one order with its items.
func (q *Queries) Order(ctx context.Context, orderID int64) (model.Order, bool, error) {
	orders, err := q.ordersWhere(ctx, querysql.Eq{Column: "o.id", Value: orderID})
	if err != nil || len(orders) == 0 {
		return model.Order{}, false, err
	}
	return orders[0], true, nil
}

func (q *Queries) ordersWhere(ctx context.Context, where querysql.Eq) ([]model.Order, error) {
	cols := append(qualify("o", model.OrderColumns), qualify("i", model.OrderItemColumns)...)
	lines, err := run(ctx, q.s, "order", querysql.Select{
		From:    "orders o",
		Columns: cols,
		Joins:   []querysql.Join{{Table: "order_items i", Left: "i.order_id", Right: "o.id", Outer: true}},
		Where:   []querysql.Eq{where},
		OrderBy: []string{"o.id ASC", "i.id ASC"},
	}, decodeOrderLine)
	if err != nil {
		return nil, err
	}

	orders := []model.Order{}
	for _, l := range lines {
		if n := len(orders); n == 0 || orders[n-1].ID != l.order.ID {
			l.order.Items = []model.OrderItem{}
			orders = append(orders, l.order)
		}
		if l.item != nil {
			last := &orders[len(orders)-1]
			last.Items = append(last.Items, *l.item)
		}
	}
	return orders, nil
}

// orderLine is one joined row: an order header and at most one item.
type orderLine struct {
	order model.Order
	item  *model.OrderItem
}

func decodeOrderLine(row model.Row) (orderLine, error) {
	n := len(model.OrderColumns)
	o, err := model.OrderFromRow(row[:n])
	if err != nil {
		return orderLine{}, err
	}
	line := orderLine{order: o}
	if row[n] == nil {
		return line, nil
	}
	item, err := model.OrderItemFromRow(row[n:])
	if err != nil {
		return orderLine{}, err
	}
	line.item = &item
	return line, nil
}
