package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the connected buyer's orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := connectApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		contract, snap, err := a.contract()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Loading orders...")
		spin.Start()
		orders, err := loadOrders(ctx, contract, common.HexToAddress(snap.Account))
		spin.Stop()
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Println(ui.Info("No orders yet."))
			fmt.Println(ui.Hint("Browse with: milknet batches"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Order", Width: 6},
			{Title: "Batch", Width: 6},
			{Title: "Farmer", Width: 13},
			{Title: "Liters", Width: 8},
			{Title: "Total", Width: 12},
			{Title: "Status", Width: 10},
		})
		for _, o := range orders {
			status := ui.StyleWarning.Render("pending")
			if o.IsDelivered {
				status = ui.StyleSuccess.Render("delivered")
			}
			t.AddRow(ui.Row{
				o.ID.String(),
				o.BatchID.String(),
				ui.TruncateAddr(o.Farmer.Hex()),
				o.Quantity.String(),
				ui.FormatEther(o.TotalPrice),
				status,
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func loadOrders(ctx context.Context, contract milknet.Contract, consumer common.Address) ([]*milknet.Order, error) {
	ids, err := contract.ConsumerOrders(ctx, consumer)
	if err != nil {
		return nil, err
	}
	orders := make([]*milknet.Order, 0, len(ids))
	for _, id := range ids {
		o, err := contract.Order(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place orders (buyers)",
}

var orderPlaceCmd = &cobra.Command{
	Use:   "place <batch-id> <liters>",
	Short: "Order milk from a batch, paying into escrow",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		batchID, err := parseUint(args[0], "batch id")
		if err != nil {
			return err
		}
		qty, err := parseUint(args[1], "quantity")
		if err != nil {
			return err
		}
		if qty.Sign() == 0 {
			return fmt.Errorf("quantity must be positive")
		}

		a, err := connectApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		contract, snap, err := a.writable()
		if err != nil {
			return err
		}
		batch, err := contract.Batch(ctx, batchID)
		if err != nil {
			return err
		}
		if err := checkOrderable(batch, qty, time.Now()); err != nil {
			return err
		}

		cost := batch.Cost(qty)
		fmt.Println(ui.KeyValueBlock("Order", [][2]string{
			{"Batch", batch.ID.String()},
			{"Farmer", ui.Addr(batch.Farmer.Hex())},
			{"Liters", qty.String()},
			{"Total", ui.FormatEther(cost)},
		}))
		if !ui.NewPrompter(assumeYes).Confirm("Place this order?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		ptx, err := contract.PlaceOrder(ctx, batchID, qty, cost)
		if err != nil {
			return err
		}
		_, err = a.waitTx(ctx, "order", ptx, snap.ChainID)
		return err
	},
}

// checkOrderable rejects orders the contract would revert.
func checkOrderable(b *milknet.Batch, qty *big.Int, now time.Time) error {
	if !b.Active(now) {
		return fmt.Errorf("batch %s is not open for orders", b.ID)
	}
	if qty.Cmp(b.Quantity) > 0 {
		return fmt.Errorf("batch %s has only %s liters left", b.ID, b.Quantity)
	}
	return nil
}

var deliverCmd = &cobra.Command{
	Use:   "deliver <order-id>",
	Short: "Confirm delivery of an order, releasing escrow to the farmer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		orderID, err := parseUint(args[0], "order id")
		if err != nil {
			return err
		}

		a, err := connectApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		contract, snap, err := a.writable()
		if err != nil {
			return err
		}
		order, err := contract.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if order.IsDelivered {
			fmt.Println(ui.Info(fmt.Sprintf("Order %s is already delivered.", order.ID)))
			return nil
		}
		if order.Consumer != common.HexToAddress(snap.Account) {
			return fmt.Errorf("order %s belongs to %s, not the connected account", order.ID, order.Consumer.Hex())
		}

		ptx, err := contract.ConfirmDelivery(ctx, orderID)
		if err != nil {
			return err
		}
		_, err = a.waitTx(ctx, "delivery confirmation", ptx, snap.ChainID)
		return err
	},
}

func init() {
	orderCmd.AddCommand(orderPlaceCmd)
}
