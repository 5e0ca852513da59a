package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/crm/backend/internal/application/consistency"
	partnerapp "github.com/crm/backend/internal/application/partner"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

type orderOp struct {
	Kind   int // 0 create, 1 update, 2 delete
	Target int
	Qty    int
	Cents  int
}

func genOrderOp() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 2),
		gen.IntRange(0, 7),
		gen.IntRange(1, 9),
		gen.IntRange(1, 10000),
	).Map(func(v []interface{}) orderOp {
		return orderOp{Kind: v[0].(int), Target: v[1].(int), Qty: v[2].(int), Cents: v[3].(int)}
	})
}

// TestStoredSpendingMatchesOrders drives random order traffic through the
// services and checks that reconciliation never finds anything to correct.
func TestStoredSpendingMatchesOrders(t *testing.T) {
	db := NewSQLiteDB(t)
	s := NewStack(t, db.DB, consistency.ModeTransactional, nil)
	ctx := context.Background()
	run := 0

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	parameters.MaxSize = 12
	properties := gopter.NewProperties(parameters)

	check := func(ops []orderOp) error {
		run++
		customer, err := s.Customers.Create(ctx, partnerapp.CreateCustomerRequest{
			Name:    "Prop",
			Email:   fmt.Sprintf("prop-%d@example.com", run),
			Phone:   "555-0100",
			Address: partnerapp.AddressDTO{Street: "s", City: "c", State: "st", Zip: "z", Country: "co"},
		})
		if err != nil {
			return err
		}

		var orders []uuid.UUID
		want := decimal.Zero
		totals := map[uuid.UUID]decimal.Decimal{}
		for _, op := range ops {
			items := []tradeapp.OrderItemInput{{
				ProductName: "Item",
				Quantity:    op.Qty,
				Price:       decimal.New(int64(op.Cents), -2),
			}}
			total := items[0].Price.Mul(decimal.NewFromInt(int64(op.Qty)))

			switch {
			case op.Kind == 0 || len(orders) == 0:
				o, err := s.Orders.Create(ctx, tradeapp.CreateOrderRequest{CustomerID: customer.ID, Items: items})
				if err != nil {
					return err
				}
				orders = append(orders, o.ID)
				totals[o.ID] = total
				want = want.Add(total)
			case op.Kind == 1:
				id := orders[op.Target%len(orders)]
				if _, err := s.Orders.Update(ctx, id, tradeapp.UpdateOrderRequest{Items: items}); err != nil {
					return err
				}
				want = want.Sub(totals[id]).Add(total)
				totals[id] = total
			default:
				i := op.Target % len(orders)
				if err := s.Orders.Delete(ctx, orders[i]); err != nil {
					return err
				}
				want = want.Sub(totals[orders[i]])
				delete(totals, orders[i])
				orders = append(orders[:i], orders[i+1:]...)
			}
		}

		result, err := s.Customers.Reconcile(ctx, customer.ID)
		if err != nil {
			return err
		}
		got := decimal.NewFromFloat(result.Customer.TotalSpending)
		if result.Corrected {
			return fmt.Errorf("reconcile corrected customer %s", customer.ID)
		}
		if len(result.Customer.Orders) != len(orders) {
			return fmt.Errorf("customer has %d orders, want %d", len(result.Customer.Orders), len(orders))
		}
		if !got.Round(2).Equal(want.Round(2)) {
			return fmt.Errorf("totalSpending %s, want %s", got, want)
		}
		return nil
	}

	properties.Property("stored aggregates equal the orders table", prop.ForAll(
		func(ops []orderOp) bool {
			if err := check(ops); err != nil {
				t.Log(err)
				return false
			}
			return true
		},
		gen.SliceOf(genOrderOp()),
	))

	properties.TestingRun(t)
}
