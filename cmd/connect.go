package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var connectCmd = &cobra.Command{
	Use:     "connect",
	Aliases: []string{"status"},
	Short:   "Connect the wallet and show the session",
	Long: `Request account access from the local wallet, validate the active
network and bind the MilkNet contract.

The wallet asks for permission once per run unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, approver())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(ui.Banner(Version))
		connErr := a.sess.Connect(ctx)
		snap := a.sess.Snapshot()
		fmt.Println(ui.SessionBlock(snap))

		switch snap.State() {
		case session.Disconnected:
			fmt.Println(ui.Hint("Add a wallet with: milknet wallet add <name> --key <private-key>"))
		case session.ConnectedInvalidNetwork:
			fmt.Println(ui.Hint("Switch with: milknet network switch sepolia"))
		case session.ConnectedValidNetwork:
			if snap.Role == session.RoleNone {
				fmt.Println(ui.Hint("Register with: milknet register farmer|buyer --name <name> --location <place>"))
			}
		}
		return connErr
	},
}
