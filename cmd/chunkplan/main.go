// chunkplan — диспетчер построения планов чанков по видам.
//
// Использование:
//
//	chunkplan [--config FILE] [--json] <command> [flags]
//
// Команды:
//
//	compute-chunks  Построить и опубликовать планы чанков для набора видов
//	species         Показать набор видов и их репрезентативные геномы
//	watch           Печатать уведомления artifact.ready
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/chunkplan/internal/cli"
	"github.com/shaiso/chunkplan/internal/config"
	"github.com/shaiso/chunkplan/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string
	var jsonOutput bool
	var app *cli.App

	// Логи в stderr: stdout занят таблицами и JSON
	logger := telemetry.NewLogger(os.Stderr)

	rootCmd := &cobra.Command{
		Use:           "chunkplan",
		Short:         "chunkplan — design and cache chunking plans per species",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			app = cli.NewApp(cfg, logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default: $"+config.EnvConfigFile+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	appFn := func() *cli.App { return app }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewComputeChunksCmd(appFn, outputFn),
		cli.NewSpeciesCmd(appFn, outputFn),
		cli.NewWatchCmd(appFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if app != nil {
		if closeErr := app.Close(); closeErr != nil {
			logger.Warn("failed to close resources", "error", closeErr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
