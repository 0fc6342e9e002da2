package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/action"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/stats"
	"github.com/roach88/recordstore/internal/store"
)

type orderResult struct {
	model.Order
}

func (r orderResult) String() string {
	s := fmt.Sprintf("Order %d for user %d, total %s, ship to %s",
		r.ID, r.UserID, money(r.TotalAmount), r.ShippingAddress)
	for _, it := range r.Items {
		s += fmt.Sprintf("\n  product %d x%d @ %s = %s",
			it.ProductID, it.Quantity, money(it.PriceAtPurchase), money(it.Subtotal()))
	}
	return s
}

type orderList struct {
	UserID int64         `json:"user_id"`
	Orders []model.Order `json:"orders"`
}

func (l orderList) String() string {
	if len(l.Orders) == 0 {
		return fmt.Sprintf("User %d has no orders.", l.UserID)
	}
	parts := make([]string, len(l.Orders))
	for i, o := range l.Orders {
		parts[i] = orderResult{o}.String()
	}
	return strings.Join(parts, "\n")
}

type cartResult struct {
	Lines []stats.CartLine `json:"lines"`
	Total float64          `json:"total"`
}

func (r cartResult) String() string {
	s := "Cart total " + money(r.Total)
	for _, l := range r.Lines {
		s += fmt.Sprintf("\n  %s x%d @ %s = %s", l.Name, l.Quantity, money(l.UnitPrice), money(l.Subtotal()))
	}
	return s
}

type productResult struct {
	model.Product
}

func (r productResult) String() string {
	return fmt.Sprintf("Product %d %s: %d in stock at %s", r.ID, r.Name, r.Stock, money(r.Price))
}

// parseLines parses "<product-id>:<quantity>" items.
func parseLines(items []string) ([]action.Line, error) {
	lines := make([]action.Line, 0, len(items))
	for _, item := range items {
		idPart, qtyPart, ok := strings.Cut(item, ":")
		if !ok {
			qtyPart = "1"
		}
		id, err := parseID(idPart, "product")
		if err != nil {
			return nil, err
		}
		qty, err := strconv.Atoi(qtyPart)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid quantity in --item %q", item))
		}
		lines = append(lines, action.Line{ProductID: id, Quantity: qty})
	}
	return lines, nil
}

// NewOrderCommand creates the order command group.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place and list orders",
	}
	cmd.AddCommand(newOrderPlaceCommand(rootOpts))
	cmd.AddCommand(newOrderListCommand(rootOpts))
	cmd.AddCommand(newOrderShowCommand(rootOpts))
	cmd.AddCommand(newRestockCommand(rootOpts))
	return cmd
}

func newOrderPlaceCommand(rootOpts *RootOptions) *cobra.Command {
	var address string
	var items []string
	var preview bool

	cmd := &cobra.Command{
		Use:   "place <user-id>",
		Short: "Place an order",
		Long: `Place an order for a user. Each --item is <product-id>:<quantity>.
Stock is checked for every line before anything is written, and prices
are captured at the moment of purchase. With --preview the cart is priced
and nothing is written.

Example:
  recordstore order place 2 --address "서울시 강남구" --item 1:2 --item 2:3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			lines, err := parseLines(items)
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if preview {
					cart, total, err := s.db.Actions.PreviewCart(ctx, lines)
					if err != nil {
						return err
					}
					return s.out.Success(cartResult{Lines: cart, Total: total})
				}
				o, err := s.db.Actions.PlaceOrder(ctx, userID, address, lines)
				if err != nil {
					return err
				}
				return s.out.Success(orderResult{o})
			})
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "shipping address")
	cmd.Flags().StringArrayVar(&items, "item", nil, "order line <product-id>:<quantity> (repeatable)")
	cmd.Flags().BoolVar(&preview, "preview", false, "price the cart without ordering")

	return cmd
}

func newOrderListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's orders with their items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				orders, err := s.db.Queries.OrdersByUser(ctx, userID)
				if err != nil {
					return err
				}
				return s.out.Success(orderList{UserID: userID, Orders: orders})
			})
		},
	}
}

func newOrderShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order")
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				o, found, err := s.db.Queries.Order(ctx, id)
				if err != nil {
					return err
				}
				if !found {
					return store.NewNotFoundError("order", id)
				}
				return s.out.Success(orderResult{o})
			})
		},
	}
}

func newRestockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restock <product-id> <delta>",
		Short: "Adjust a product's stock",
		Long: `Add delta to a product's stock. A negative delta removes stock; stock
never drops below zero.

Example:
  recordstore order restock 1 10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "product")
			if err != nil {
				return err
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid delta %q", args[1]))
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				p, err := s.db.Actions.Restock(ctx, id, delta)
				if err != nil {
					return err
				}
				return s.out.Success(productResult{p})
			})
		},
	}
}
