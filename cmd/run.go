package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avdeev/steamloot/internal/adapters/release"
	summaryrender "github.com/avdeev/steamloot/internal/adapters/render/summary"
	"github.com/avdeev/steamloot/internal/version"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Loot every configured account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.buildRuntime(configPath)
			if err != nil {
				return err
			}

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			release.NewChecker(&http.Client{Timeout: 10 * time.Second}, app.logger).Check(checkCtx, version.Version)
			cancel()

			app.logger.Info("setup complete",
				"accounts", len(rt.accounts),
				"receivers", len(rt.plan.Receivers),
				"inventories", len(rt.plan.Sources),
				"identities", rt.provider.AvailableCount(),
			)

			if rt.cfg.AskForApproval && !yes {
				if !confirm(cmd) {
					return fmt.Errorf("aborted")
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := rt.looter.Loot(ctx, rt.accounts, rt.plan)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryrender.Render(summary))

			if !rt.cfg.ExitOnFinish {
				fmt.Fprintln(cmd.OutOrStdout(), "press enter to exit")
				_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "Config.toml", "path to the configuration file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "start without asking for approval")

	return cmd
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "start looting? [y/N]: ")

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
