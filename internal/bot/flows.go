package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/avetikov/flowgram/internal/apperr"
	"github.com/avetikov/flowgram/internal/bot/keyboard"
	"github.com/avetikov/flowgram/internal/flow"
	"github.com/avetikov/flowgram/internal/i18n"
)

// OrderFlowName identifies the demo order flow in session records.
const OrderFlowName = "order"

const (
	orderStateMenu    = "menu"
	orderStateConfirm = "confirm"
)

const cartBagKey = "cart"

type product struct {
	ID    string
	Name  string
	Price float64
}

var catalog = []product{
	{ID: "espresso", Name: "Espresso", Price: 3.0},
	{ID: "latte", Name: "Latte", Price: 4.0},
	{ID: "croissant", Name: "Croissant", Price: 2.5},
}

func productByID(id string) (product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return product{}, false
}

// menuData feeds the menu view.
type menuData struct {
	Items     []product
	CartCount int
}

// cartChange is the result of add-to-cart commands.
type cartChange struct {
	Item  string `validate:"required"`
	Count int    `validate:"min=1"`
}

// orderSummary feeds the confirmation view.
type orderSummary struct {
	Lines []string
	Total float64
	Empty bool
}

// orderReceipt is the result of placing an order.
type orderReceipt struct {
	OrderID string `validate:"required,uuid4"`
}

// addItemInput is the contract for single add-to-cart actions.
type addItemInput struct {
	Item string `mapstructure:"item" validate:"required"`
}

// addManyInput is the contract for "<qty> x <item>" text input.
type addManyInput struct {
	Qty  int    `mapstructure:"qty" validate:"required,min=1,max=99"`
	Item string `mapstructure:"item" validate:"required"`
}

// NewOrderFlow builds the demo ordering conversation: a menu state that
// accumulates a cart in the session bag, and a confirmation state that
// places the order and leaves the flow.
func NewOrderFlow(t i18n.Translator, log *slog.Logger, errs *apperr.Handler) *flow.Flow {
	menuQuery := flow.NewQuery("order.menu", func(_ context.Context, fc *flow.Context) (menuData, error) {
		return menuData{Items: catalog, CartCount: cartCount(fc)}, nil
	})

	addItem := flow.NewCommand("order.add_item",
		func(_ context.Context, in addItemInput, fc *flow.Context) (cartChange, error) {
			if _, ok := productByID(in.Item); !ok {
				return cartChange{}, fmt.Errorf("unknown product %q", in.Item)
			}
			count := bumpCart(fc, in.Item, 1)
			return cartChange{Item: in.Item, Count: count}, nil
		})

	addMany := flow.NewCommand("order.add_many",
		func(_ context.Context, in addManyInput, fc *flow.Context) (cartChange, error) {
			if _, ok := productByID(in.Item); !ok {
				return cartChange{}, fmt.Errorf("unknown product %q", in.Item)
			}
			count := bumpCart(fc, in.Item, in.Qty)
			return cartChange{Item: in.Item, Count: count}, nil
		})

	reviewCart := flow.NewCommand("order.review",
		func(_ context.Context, _ struct{}, fc *flow.Context) (orderSummary, error) {
			return summarize(fc), nil
		})

	discardCart := flow.NewCommand("order.discard",
		func(_ context.Context, _ struct{}, fc *flow.Context) (struct{}, error) {
			fc.Session.Delete(cartBagKey)
			return struct{}{}, nil
		})

	keepCart := flow.NewCommand("order.keep",
		func(_ context.Context, _ struct{}, _ *flow.Context) (struct{}, error) {
			return struct{}{}, nil
		})

	placeOrder := flow.NewCommand("order.place",
		func(_ context.Context, _ struct{}, fc *flow.Context) (orderReceipt, error) {
			if cartCount(fc) == 0 {
				return orderReceipt{}, fmt.Errorf("cart is empty")
			}
			fc.Session.Delete(cartBagKey)
			return orderReceipt{OrderID: uuid.NewString()}, nil
		})

	summaryQuery := flow.NewQuery("order.summary", func(_ context.Context, fc *flow.Context) (orderSummary, error) {
		return summarize(fc), nil
	})

	states := map[string]*flow.State{
		orderStateMenu: {
			OnEnter: menuQuery,
			View: func(data any) flow.Payload {
				menu, _ := data.(menuData)

				var b strings.Builder
				b.WriteString(t.T("order.menu.title"))
				b.WriteString("\n\n")
				for _, item := range menu.Items {
					fmt.Fprintf(&b, "%s — $%.2f\n", item.Name, item.Price)
				}
				fmt.Fprintf(&b, "\n%s: %d", t.T("order.menu.cart"), menu.CartCount)

				kb := keyboard.New()
				for _, item := range menu.Items {
					kb.Row(keyboard.Button{
						Text: "+ " + item.Name,
						Data: keyboard.JoinCallback("add", item.ID),
					})
				}
				kb.Row(
					keyboard.Button{Text: t.T("order.menu.checkout"), Data: "checkout"},
					keyboard.Button{Text: t.T("order.menu.cancel"), Data: "cancel"},
				)

				return flow.Payload{Text: b.String(), Markup: kb.Markup()}
			},
			OnAction: []flow.Route{
				flow.On("add::item", flow.Rule{Do: addItem, Refresh: true}),
				flow.On("checkout", flow.Rule{Do: reviewCart, NextFunc: func(result any) string {
					if summary, ok := result.(orderSummary); ok && !summary.Empty {
						return orderStateConfirm
					}
					return orderStateMenu
				}}),
				flow.On("cancel", flow.Rule{Do: discardCart}),
			},
			OnText: []flow.Route{
				// e.g. "2 x latte"
				flow.On(":qty x :item", flow.Rule{Do: addMany, Refresh: true}),
			},
		},
		orderStateConfirm: {
			OnEnter: summaryQuery,
			View: func(data any) flow.Payload {
				summary, _ := data.(orderSummary)

				var b strings.Builder
				b.WriteString(t.T("order.confirm.title"))
				b.WriteString("\n\n")
				for _, line := range summary.Lines {
					b.WriteString(line)
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "\n%s: $%.2f", t.T("order.confirm.total"), summary.Total)

				markup := keyboard.New().Row(
					keyboard.Button{Text: t.T("order.confirm.place"), Data: "confirm"},
					keyboard.Button{Text: t.T("order.confirm.back"), Data: "back"},
				).Markup()

				return flow.Payload{Text: b.String(), Markup: markup}
			},
			OnAction: []flow.Route{
				flow.On("confirm", flow.Rule{Do: placeOrder}),
				flow.On("back", flow.Rule{Do: keepCart, Next: orderStateMenu}),
			},
		},
	}

	return flow.New(OrderFlowName, states,
		flow.WithLogger(log),
		flow.WithErrorHandler(errs),
		flow.WithMessages(flow.Messages{
			ActionFailed: t.T("errors.action_failed"),
			RenderFailed: t.T("errors.render_failed"),
		}),
	)
}

// cartCount sums the cart held in the session bag.
func cartCount(fc *flow.Context) int {
	total := 0
	for _, qty := range cartItems(fc) {
		total += qty
	}
	return total
}

// cartItems reads the cart from the bag. Values arrive as float64 after a
// JSON round-trip through the session store.
func cartItems(fc *flow.Context) map[string]int {
	items := make(map[string]int)

	raw, ok := fc.Session.Get(cartBagKey)
	if !ok {
		return items
	}

	stored, ok := raw.(map[string]any)
	if !ok {
		return items
	}

	for id, qty := range stored {
		switch v := qty.(type) {
		case int:
			items[id] = v
		case float64:
			items[id] = int(v)
		}
	}

	return items
}

func bumpCart(fc *flow.Context, item string, delta int) int {
	items := cartItems(fc)
	items[item] += delta

	stored := make(map[string]any, len(items))
	for id, qty := range items {
		stored[id] = qty
	}
	fc.Session.Set(cartBagKey, stored)

	return items[item]
}

func summarize(fc *flow.Context) orderSummary {
	items := cartItems(fc)
	if len(items) == 0 {
		return orderSummary{Empty: true}
	}

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := orderSummary{}
	for _, id := range ids {
		p, ok := productByID(id)
		if !ok {
			continue
		}
		qty := items[id]
		summary.Lines = append(summary.Lines, fmt.Sprintf("%d x %s — $%.2f", qty, p.Name, float64(qty)*p.Price))
		summary.Total += float64(qty) * p.Price
	}

	return summary
}
