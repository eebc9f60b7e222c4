// Command rpectl seeds, inspects and drives an RPE tracker.
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulldogs/rpetracker/internal/config"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

const defaultTimeout = 30 * time.Second

var (
	// Global flags
	serverURL string
	logLevel  string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "rpectl",
	Short: "Operate an RPE tracker",
	Long: `rpectl works against the configured table store (RPE_* environment,
optional RPE_CONFIG file) or against a running server over HTTP.

Store commands:
  seed      - write a synthetic history
  workload  - print acute:chronic workload per athlete

Server commands:
  submit    - post one submission
  load      - post many generated submissions concurrently
  remind    - trigger reminder dispatch
  report    - trigger coach report dispatch`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(); err != nil {
			return err
		}
		return logger.SetLevelString(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "http://localhost:4025", "base URL of a running server")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")

	rootCmd.AddCommand(seedCmd, workloadCmd, submitCmd, loadCmd, remindCmd, reportCmd)
}

// loadConfig reads the same configuration the server uses.
func loadConfig(ctx context.Context) (*config.Config, error) {
	return config.Load(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
