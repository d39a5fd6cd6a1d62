package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/provider"
	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
)

var watchConnect bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live session dashboard",
	Long: `Open a live view of the session that follows wallet and network
changes as they happen.

Keys: c connect · d disconnect · s switch to the next network
      a select the next wallet · l lock the wallet · q quit

The dashboard owns the terminal, so wallet prompts are approved
automatically while it runs; pressing c or s is the approval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, provider.AutoApprove)
		if err != nil {
			return err
		}
		defer a.Close()

		updates := make(chan session.Snapshot, 16)
		sub := a.sess.SubscribeSnapshots(updates)
		defer sub.Unsubscribe()

		if watchConnect {
			go func() {
				if err := a.sess.Connect(ctx); err != nil {
					log.L(ctx).Debugf("initial connect: %v", err)
				}
			}()
		}

		m := ui.NewSessionModel(ctx, a.sess, updates).WithWallets(a.local)
		prog := tea.NewProgram(m,
			tea.WithInput(os.Stdin),
			tea.WithOutput(os.Stdout),
			tea.WithContext(ctx),
		)
		final, err := prog.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		if sm, ok := final.(ui.SessionModel); ok {
			fmt.Println(ui.Meta(fmt.Sprintf("session ended: %s", sm.Snapshot().State())))
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchConnect, "connect", true, "connect the wallet when the dashboard opens")
}
