package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkilian/partload/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <table>",
	Short: "Print the resolved schema of a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	if err := a.Start(cmd.Context()); err != nil {
		return err
	}
	defer a.Stop()

	tbl, err := a.LoadTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	s := tbl.Schema()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "table %s (fingerprint %s)\n", args[0], schema.FingerprintString(s))
	for _, f := range s.Fields() {
		null := "not null"
		if f.Nullable {
			null = "null"
		}
		fmt.Fprintf(out, "  %s: %s %s\n", f.Name, f.Type, null)
	}
	if md := s.Metadata(); md.Len() > 0 {
		for i, k := range md.Keys() {
			fmt.Fprintf(out, "  [%s = %s]\n", k, md.Values()[i])
		}
	}
	return nil
}
