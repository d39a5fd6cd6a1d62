package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var (
	batchQuantity  string
	batchPrice     string
	batchExpiresIn time.Duration
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List milk batches open for orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := connectApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		contract, _, err := a.contract()
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Loading batches...")
		spin.Start()
		batches, err := contract.ActiveBatches(ctx, time.Now())
		spin.Stop()
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Println(ui.Info("No active batches."))
			return nil
		}
		fmt.Println(batchTable(batches).Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d active batch(es)", len(batches))))
		return nil
	},
}

func batchTable(batches []*milknet.Batch) *ui.Table {
	t := ui.NewTable([]ui.Column{
		{Title: "ID", Width: 6},
		{Title: "Farmer", Width: 13},
		{Title: "Liters", Width: 8},
		{Title: "Price/L", Width: 12},
		{Title: "Expires", Width: 16},
	})
	for _, b := range batches {
		t.AddRow(ui.Row{
			b.ID.String(),
			ui.TruncateAddr(b.Farmer.Hex()),
			b.Quantity.String(),
			ui.FormatEther(b.PricePerLiter),
			b.Expiry.Local().Format("2006-01-02 15:04"),
		})
	}
	return t
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Inspect or create milk batches",
}

var batchShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseUint(args[0], "batch id")
		if err != nil {
			return err
		}
		a, err := connectApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		contract, _, err := a.contract()
		if err != nil {
			return err
		}
		b, err := contract.Batch(ctx, id)
		if err != nil {
			return err
		}
		status := ui.StyleSuccess.Render("open")
		if !b.Active(time.Now()) {
			status = ui.StyleError.Render("closed")
		}
		fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Batch #%s", b.ID), [][2]string{
			{"Farmer", ui.Addr(b.Farmer.Hex())},
			{"Quantity", b.Quantity.String() + " L"},
			{"Price/L", ui.FormatEther(b.PricePerLiter)},
			{"Expires", b.Expiry.Local().Format(time.RFC1123)},
			{"Status", status},
		}))
		return nil
	},
}

var batchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "List a new milk batch (farmers)",
	Long: `Create a batch of milk for sale.

Example:
  milknet batch create --quantity 120 --price 0.001 --expires-in 72h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		qty, err := parseUint(batchQuantity, "quantity")
		if err != nil {
			return err
		}
		if qty.Sign() == 0 {
			return fmt.Errorf("quantity must be positive")
		}
		price, err := parseEther(batchPrice)
		if err != nil {
			return err
		}
		if batchExpiresIn <= 0 {
			return fmt.Errorf("--expires-in must be positive")
		}

		a, err := connectApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.sess.Role() == session.RoleBuyer {
			fmt.Println(ui.Warn("Your cached role is buyer; the contract only accepts batches from registered farmers."))
		}
		contract, snap, err := a.writable()
		if err != nil {
			return err
		}

		expiry := time.Now().Add(batchExpiresIn)
		ptx, err := contract.CreateBatch(ctx, qty, price, expiry)
		if err != nil {
			return err
		}
		if _, err := a.waitTx(ctx, "batch creation", ptx, snap.ChainID); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	batchCreateCmd.Flags().StringVar(&batchQuantity, "quantity", "", "liters in the batch")
	batchCreateCmd.Flags().StringVar(&batchPrice, "price", "", "price per liter in ETH/LSK, e.g. 0.001")
	batchCreateCmd.Flags().DurationVar(&batchExpiresIn, "expires-in", 72*time.Hour, "time until the batch expires")
	_ = batchCreateCmd.MarkFlagRequired("quantity")
	_ = batchCreateCmd.MarkFlagRequired("price")

	batchCmd.AddCommand(batchShowCmd, batchCreateCmd)
}
