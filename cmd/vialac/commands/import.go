package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vialac/vialac/internal/logging"
	"github.com/vialac/vialac/internal/service"
)

func importCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace herd, history and genealogy from the CSV exports in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			_, db, err := openHost(log)
			if err != nil {
				return err
			}
			defer db.Close()

			if dir == "" {
				dir = cfg.Data.Dir
			}
			res, err := (&service.IngestService{DB: db}).ImportDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if len(res.Files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no CSV exports found in %s\n", dir)
				return nil
			}
			for _, f := range res.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s imported %d, errors %d\n", f.File, f.Imported, len(f.Errors))
				for _, e := range f.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", e)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the CSV exports (default data.dir)")
	return cmd
}
