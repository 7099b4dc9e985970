// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

var transformCmd = &cobra.Command{
	Use:   "transform [uuid]",
	Short: "Transform a stored object to another taxonomy position",
	Long: `Transform loads a stored object by UUID, classifies its current
content, and applies the strategy implied by the relative taxonomy
positions: expand, condense, enhance, restructure, or convert. The
result is stored in both mirrors with a lineage link back to its source.

Generative strategies (expand, condense, enhance) call the configured
AI backend; relabel strategies (restructure, convert) run locally.`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().String("target", "", "target object type (required)")
	transformCmd.Flags().String("stage", "", "explicit target development stage")
	transformCmd.Flags().Bool("suggest", false, "list recommended transformations instead of running one")
	transformCmd.Flags().Bool("json", false, "output the result as JSON")
	transformCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("target")
	stage, _ := cmd.Flags().GetString("stage")
	suggest, _ := cmd.Flags().GetBool("suggest")
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.close()

	source, err := e.db.LoadCodexObject(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("object %s not found", args[0])
	}

	if suggest {
		suggestions := e.transformer.Suggestions(source)
		if asJSON {
			return printJSON(suggestions)
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Target", "Reason"})
		for _, s := range suggestions {
			tw.AppendRow(table.Row{s.TargetType, s.Reason})
		}
		tw.Render()
		return nil
	}

	result, err := e.pipeline.TransformAndStore(cmd.Context(), source,
		types.CodexObjectType(target), types.DevelopmentStage(stage))
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(result)
	}
	if !result.Success {
		return fmt.Errorf("%s transformation failed: %s", result.TransformationType, result.ErrorMessage)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRow(table.Row{"Strategy", result.TransformationType})
	tw.AppendRow(table.Row{"Source type", result.SourceType})
	tw.AppendRow(table.Row{"Target type", result.TargetType})
	tw.AppendRow(table.Row{"Confidence", fmt.Sprintf("%.2f", result.ConfidenceScore)})
	tw.AppendRow(table.Row{"New object", result.Object.ShortUUID})
	tw.AppendRow(table.Row{"Word count", result.Object.WordCount})
	if result.Notes != "" {
		tw.AppendRow(table.Row{"Notes", result.Notes})
	}
	tw.Render()
	return nil
}
