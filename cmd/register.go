package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var (
	registerName     string
	registerLocation string
)

var registerCmd = &cobra.Command{
	Use:   "register <farmer|buyer>",
	Short: "Register on the marketplace as a farmer or buyer",
	Long: `Send the registration transaction for the connected account and cache
the role locally once it is mined.

Example:
  milknet register farmer --name "Green Pastures" --location "Nakuru"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		role, err := session.ParseRole(args[0])
		if err != nil {
			return err
		}
		if strings.TrimSpace(registerName) == "" || strings.TrimSpace(registerLocation) == "" {
			return fmt.Errorf("--name and --location are required")
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
		registered, err := isRegistered(ctx, contract, role, common.HexToAddress(snap.Account))
		if err != nil {
			return err
		}
		if registered {
			fmt.Println(ui.Info(fmt.Sprintf("%s is already registered as %s.", ui.TruncateAddr(snap.Account), role)))
			return a.sess.RegisterRole(role)
		}

		var ptx *milknet.PendingTx
		switch role {
		case session.RoleFarmer:
			ptx, err = contract.RegisterFarmer(ctx, registerName, registerLocation)
		default:
			ptx, err = contract.RegisterConsumer(ctx, registerName, registerLocation)
		}
		if err != nil {
			return err
		}
		if _, err := a.waitTx(ctx, "registration", ptx, snap.ChainID); err != nil {
			return err
		}

		if err := a.sess.RegisterRole(role); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Registered %s as %s.", ui.TruncateAddr(snap.Account), role)))
		return nil
	},
}

// isRegistered asks the contract whether account already holds role.
func isRegistered(ctx context.Context, contract milknet.Contract, role session.Role, account common.Address) (bool, error) {
	var (
		p   *milknet.Participant
		err error
	)
	if role == session.RoleFarmer {
		p, err = contract.Farmer(ctx, account)
	} else {
		p, err = contract.Consumer(ctx, account)
	}
	if err != nil {
		return false, err
	}
	return p.IsRegistered, nil
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerLocation, "location", "", "farm or delivery location")
}
