// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ideation-engine/internal/pipeline"
)

var lineageCmd = &cobra.Command{
	Use:   "lineage [uuid]",
	Short: "Show an object's derivation tree and ancestry",
	Long: `Lineage renders the derivation tree below an object (everything
derived from it, directly or transitively) and the ancestry chain above
it, following parent links in both directions.`,
	Args: cobra.ExactArgs(1),
	RunE: runLineage,
}

func init() {
	lineageCmd.Flags().Bool("json", false, "output the tree as JSON")

	rootCmd.AddCommand(lineageCmd)
}

func runLineage(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.close()

	tree, err := e.pipeline.LineageTree(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	ancestors, err := e.pipeline.Ancestors(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(map[string]any{
			"tree":      tree,
			"ancestors": ancestors,
		})
	}

	if len(ancestors) > 0 {
		parts := make([]string, 0, len(ancestors))
		// Oldest ancestor first reads as a chain down to the object.
		for i := len(ancestors) - 1; i >= 0; i-- {
			parts = append(parts, fmt.Sprintf("%s (%s)", ancestors[i].ShortUUID, ancestors[i].ObjectType))
		}
		fmt.Printf("ancestry: %s\n", strings.Join(parts, " > "))
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Object", "Type", "Stage", "Words", "Title"})
	appendLineageRows(tw, tree, 0)
	tw.Render()
	return nil
}

func appendLineageRows(tw table.Writer, node *pipeline.LineageNode, depth int) {
	o := node.Object
	indent := strings.Repeat("  ", depth)
	tw.AppendRow(table.Row{indent + o.ShortUUID, o.ObjectType, o.DevelopmentStage, o.WordCount, o.Title})
	for _, child := range node.Children {
		appendLineageRows(tw, child, depth+1)
	}
}
