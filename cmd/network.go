package cmd

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List and switch supported networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the networks MilkNet is deployed on",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := cfg.NetworkTable().All()
		t := ui.NewTable([]ui.Column{
			{Title: "", Width: 1},
			{Title: "Name", Width: 16},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 8},
			{Title: "Contract", Width: 44},
		})
		for _, d := range all {
			mark := ""
			if d.ChainID == cfg.InitialChainID {
				mark = ui.StyleSuccess.Render("●")
			}
			contract := ui.Meta("not configured")
			if d.ContractAddress != (common.Address{}) {
				contract = ui.Addr(d.ContractAddress.Hex())
			}
			t.AddRow(ui.Row{
				mark,
				ui.ChainName(d.Name),
				fmt.Sprintf("%d", d.ChainID),
				d.AddChain.NativeCurrency.Symbol,
				contract,
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d networks supported", len(all))))
		return nil
	},
}

var networkSwitchCmd = &cobra.Command{
	Use:   "switch <name|chain-id>",
	Short: "Switch the wallet to a supported network",
	Long: `Ask the wallet to switch networks. Chains the wallet does not know
yet are added from the built-in parameters first.

Examples:
  milknet network switch sepolia
  milknet network switch 4202
  milknet network switch 0xaa36a7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		target, err := cfg.NetworkTable().Resolve(args[0])
		if err != nil {
			return fmt.Errorf("%w: run `milknet network list`", err)
		}

		a, err := openApp(ctx, approver())
		if err != nil {
			return err
		}
		defer a.Close()

		// Being on an unsupported network is the usual reason to switch.
		if err := a.sess.Connect(ctx); err != nil &&
			!errors.Is(err, session.ErrUnsupportedNetwork) && !errors.Is(err, session.ErrContractUnreachable) {
			return err
		}
		log.L(ctx).Debugf("switching from chain %d to %d", a.sess.Snapshot().ChainID, target.ChainID)

		if err := a.sess.SwitchNetwork(ctx, target.ChainID); err != nil {
			return err
		}
		snap, err := waitForChain(ctx, a.sess, target.ChainID)
		if err != nil {
			return err
		}

		cfg.InitialChainID = target.ChainID
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println(ui.SessionBlock(snap))
		fmt.Println(ui.Success(fmt.Sprintf("Switched to %s.", target.Name)))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkSwitchCmd)
}
