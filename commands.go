package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/digraph"
	"github.com/mgijax/wts/utils"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <record>",
		Short: "Repair the closure of the component containing a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := utils.CleanRecordNumber(args[0])
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			changes, err := a.svc.SyncRecord(cmd.Context(), a.relationshipType(cmd), record)
			if err != nil {
				return err
			}
			writeChanges(cmd.OutOrStdout(), changes)
			return nil
		},
	}
}

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute the whole closure of a relationship type",
		Long: `rebuild recomputes every component of the relationship type given by
--type, or of every configured type when --type is not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			var types []closure.RelationshipType
			if cmd.Flags().Changed("type") {
				types = append(types, a.relationshipType(cmd))
			}

			stats, err := a.svc.Rebuild(cmd.Context(), "cli", types...)
			if err != nil {
				return err
			}
			for _, st := range stats {
				writeRebuildStats(cmd.OutOrStdout(), st)
			}
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <record>",
		Short: "Print the dependency tree below a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := utils.CleanRecordNumber(args[0])
			if err != nil {
				return err
			}
			titles, _ := cmd.Flags().GetBool("titles")

			a, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			lines, err := a.svc.Tree(cmd.Context(), a.relationshipType(cmd), record, titles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}
	cmd.Flags().Bool("titles", false, "Show record titles")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <record> <targets>...",
		Short: "Report which new dependencies would create a cycle",
		Long: `check reports, without changing anything, whether <record> may depend on
each target. Targets may be given as separate arguments or as a comma
separated list such as "TR 12, TR 15".`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := utils.CleanRecordNumber(args[0])
			if err != nil {
				return err
			}
			targets, err := utils.ParseRecordList(strings.Join(args[1:], ","))
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			violations, err := a.svc.CheckDependencies(cmd.Context(), a.relationshipType(cmd), record, targets)
			if err != nil {
				return err
			}
			writeViolations(cmd.OutOrStdout(), record, violations)
			return nil
		},
	}
}

func writeChanges(w io.Writer, changes *closure.Changes) {
	added := changes.Added.Arcs()
	deleted := changes.Deleted.Arcs()
	if len(added) == 0 && len(deleted) == 0 {
		fmt.Fprintln(w, "No problems found")
		return
	}

	digraph.SortArcs(added)
	digraph.SortArcs(deleted)
	fmt.Fprintf(w, "Added %d transitive closure arcs\n", len(added))
	for _, arc := range added {
		fmt.Fprintf(w, "\t%d to %d\n", arc.From(), arc.To())
	}
	fmt.Fprintf(w, "Deleted %d transitive closure arcs\n", len(deleted))
	for _, arc := range deleted {
		fmt.Fprintf(w, "\t%d to %d\n", arc.From(), arc.To())
	}
}

func writeRebuildStats(w io.Writer, st *closure.RebuildStats) {
	fmt.Fprintf(w, "Relationship type %d: %d components, %d records, added %d, deleted %d (%s)\n",
		st.RelationshipType, st.Components, st.Nodes, st.Added, st.Deleted, st.Elapsed.Round(time.Millisecond))
}

func writeViolations(w io.Writer, record digraph.NodeID, violations []closure.Violation) {
	if len(violations) == 0 {
		fmt.Fprintf(w, "TR %d may depend on all given records\n", record)
		return
	}
	for _, v := range violations {
		fmt.Fprintf(w, "TR %d already depends on TR %d\n", v.Target, v.Origin)
	}
}
