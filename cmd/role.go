package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var roleCmd = &cobra.Command{
	Use:   "role [farmer|buyer]",
	Short: "Show or set the cached marketplace role",
	Long: `Show the role cached on this machine, or set it without touching the
chain. The cache only selects which views the CLI favours; the contract's
registration is what counts on-chain (see milknet register).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), approver())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			role, err := session.ParseRole(args[0])
			if err != nil {
				return err
			}
			if err := a.sess.RegisterRole(role); err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Role set to %s.", role)))
			return nil
		}

		role := a.sess.Role()
		if role == session.RoleNone {
			fmt.Println(ui.Info("No role cached."))
			fmt.Println(ui.Hint("Register with: milknet register farmer|buyer --name <name> --location <place>"))
			return nil
		}
		fmt.Println(ui.KeyValueBlock("", [][2]string{
			{"Role", string(role)},
			{"Cache", ui.Meta(a.roles.Path())},
		}))
		return nil
	},
}
