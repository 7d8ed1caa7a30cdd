package cli

import (
	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	var noDrop bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the statements a synchronization would execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			m, err := s.migrate(schema.WithDropColumn(!noDrop))
			if err != nil {
				return err
			}
			changes, err := m.Plan(cmd.Context(), s.tables...)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), changes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noDrop, "no-drop", false, "never drop columns")

	return cmd
}
