package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/config"
	"github.com/Mohsinsiddi/milknet/internal/log"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/milknet/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir    string
	cfg       *config.Config
	verbose   bool
	assumeYes bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "milknet",
	Short: "Wallet session CLI for the MilkNet dairy marketplace",
	Long: `milknet connects a local wallet to the MilkNet marketplace contract.

  Farmers list milk batches, buyers order them, and both confirm delivery.
  The session tracks the connected account, validates the network against
  the supported list (Sepolia, LISK Testnet) and binds the contract client.

Permission prompts (connect, network switch) can be skipped with --yes or
"auto_approve": true in config.json.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logConf := cfg.Log
		if verbose {
			logConf.Level = "debug"
		}
		log.InitConfig(logConf)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = log.WithLogField(ctx, "session", uuid.NewString())
		log.L(ctx).Debugf("config loaded from %s", cfg.Dir())
		cmd.SetContext(ctx)
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errLine(err))
		os.Exit(1)
	}
}

func init() {
	// MILKNET_CONFIG_DIR overrides the --config default.
	if envDir := os.Getenv(config.EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.milknet)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve wallet prompts without asking")

	rootCmd.AddCommand(
		connectCmd,
		networkCmd,
		walletCmd,
		roleCmd,
		registerCmd,
		batchesCmd,
		batchCmd,
		ordersCmd,
		orderCmd,
		deliverCmd,
		watchCmd,
		abiCmd,
	)
}
