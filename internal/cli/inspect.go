package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [table...]",
		Short: "Print the live columns of tables",
		Long: `Print the live columns of the given tables, or of all the tables
declared in the schema file. Missing tables are reported as such.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			m, err := s.migrate()
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = s.cfg.TableNames()
			}
			live, err := m.Inspect(cmd.Context(), names...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, name := range names {
				if live[i] == nil {
					fmt.Fprintf(w, "%s: missing\n", name)
					continue
				}
				fmt.Fprintf(w, "%s: %s\n", name, strings.Join(live[i].ColumnNames(), ", "))
			}
			return nil
		},
	}

	return cmd
}
