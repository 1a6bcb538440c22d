package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/chunkplan/internal/species"
)

// SpeciesRow — строка вывода команды species.
type SpeciesRow struct {
	SpeciesID string `json:"species_id"`
	GenomeID  string `json:"genome_id"`
}

// NewSpeciesCmd создаёт команду species.
func NewSpeciesCmd(appFn func() *App, outputFn func() *Output) *cobra.Command {
	var db dbFlags
	var speciesArg string

	cmd := &cobra.Command{
		Use:   "species",
		Short: "Show the species set and representative genomes for a selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			out := outputFn()
			db.apply(cmd, &app.Config)

			dbSpec, err := app.Config.DBSpec()
			if err != nil {
				return err
			}
			cat, err := app.Catalog(cmd.Context(), dbSpec)
			if err != nil {
				return err
			}
			reps, err := cat.Representatives(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := species.Resolve(speciesArg, reps)
			if err != nil {
				return err
			}

			data := make([]SpeciesRow, len(ids))
			rows := make([][]string, len(ids))
			for i, id := range ids {
				data[i] = SpeciesRow{SpeciesID: id, GenomeID: reps[id]}
				rows[i] = []string{id, reps[id]}
			}
			out.Print([]string{"SPECIES", "GENOME"}, rows, data)
			return nil
		},
	}

	db.register(cmd)
	cmd.Flags().StringVar(&speciesArg, "species", species.KeywordAll, "species[,species...], a slice idx:modulus, or 'all'")

	return cmd
}
