package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/chunkplan/internal/config"
)

// dbFlags — флаги, задающие базу MIDAS.
type dbFlags struct {
	name       string
	dir        string
	remoteRoot string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "midasdb-name", "uhgg",
		fmt.Sprintf("MIDAS database name (%s)", strings.Join(config.MidasDBNames, ", ")))
	cmd.Flags().StringVar(&f.dir, "midasdb-dir", ".", "Local MIDAS database path mirroring the remote root")
	cmd.Flags().StringVar(&f.remoteRoot, "remote-root", "", "Remote root of the database (s3://bucket/prefix or a path)")
}

// apply накладывает явно заданные флаги на cfg.
func (f *dbFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("midasdb-name") {
		cfg.MidasDB.Name = f.name
	}
	if cmd.Flags().Changed("midasdb-dir") {
		cfg.MidasDB.Dir = f.dir
	}
	if cmd.Flags().Changed("remote-root") {
		cfg.MidasDB.RemoteRoot = f.remoteRoot
	}
}
