package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage the ordered partition manifest",
	Long: `The manifest records, per table, the ordered list of partition objects
loaded when partitions: manifest is configured.`,
}

var manifestAddCmd = &cobra.Command{
	Use:   "add <table> <object>...",
	Short: "Append partition objects to a table",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runManifestAdd,
}

var manifestListCmd = &cobra.Command{
	Use:   "list <table>",
	Short: "List a table's partitions in load order",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestList,
}

var manifestRemoveCmd = &cobra.Command{
	Use:   "remove <table>",
	Short: "Remove every partition registered for a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestRemove,
}

func init() {
	manifestCmd.AddCommand(manifestAddCmd, manifestListCmd, manifestRemoveCmd)
	rootCmd.AddCommand(manifestCmd)
}

func runManifestAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Stop()

	catalog, err := a.Catalog()
	if err != nil {
		return err
	}
	added, err := catalog.RegisterPartitions(cmd.Context(), args[0], args[1:]...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: added %d partitions\n", args[0], added)
	return nil
}

func runManifestList(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Stop()

	catalog, err := a.Catalog()
	if err != nil {
		return err
	}
	records, err := catalog.ListPartitions(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", r.Ordinal, r.ObjectPath)
	}
	return nil
}

func runManifestRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Stop()

	catalog, err := a.Catalog()
	if err != nil {
		return err
	}
	removed, err := catalog.RemoveTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %d partitions\n", args[0], removed)
	return nil
}
