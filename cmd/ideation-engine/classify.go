// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ideation-engine/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify free text into the content taxonomy",
	Long: `Classify reads free text from a file (or stdin with "-") and reports
its position in the content taxonomy: object type, development stage,
confidence, and suggested next steps. With --save, the text also becomes
a new stored object in the database and file tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("title", "", "title for the content")
	classifyCmd.Flags().String("genre", "", "genre hint")
	classifyCmd.Flags().String("audience", "", "target audience hint")
	classifyCmd.Flags().String("tags", "", "comma-separated tags")
	classifyCmd.Flags().Bool("save", false, "store the classified content as a new object")
	classifyCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(classifyCmd)
}

// splitTags parses a comma-separated tag list, trimming whitespace and
// dropping empty elements.
func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	content, err := readContent(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no content to classify")
	}

	title, _ := cmd.Flags().GetString("title")
	genre, _ := cmd.Flags().GetString("genre")
	audience, _ := cmd.Flags().GetString("audience")
	tags, _ := cmd.Flags().GetString("tags")
	save, _ := cmd.Flags().GetBool("save")
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.close()

	metadata := map[string]string{}
	if title != "" {
		metadata["title"] = title
	}
	if genre != "" {
		metadata["genre"] = genre
	}
	if audience != "" {
		metadata["target_audience"] = audience
	}
	if tags != "" {
		metadata["tags"] = tags
	}

	result := e.classifier.Classify(cmd.Context(), content, metadata)

	if save {
		o := types.NewCodexObject(title, content, result.ObjectType, result.DevelopmentStage)
		o.Genre = genre
		o.TargetAudience = audience
		o.Tags = splitTags(tags)
		o.ApplyClassification(result.ObjectType, result.DevelopmentStage, result.ConfidenceScore)

		if err := e.db.SaveCodexObject(cmd.Context(), o); err != nil {
			return err
		}
		if _, err := e.files.SaveCodexObjectFile(o); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Stored object %s (%s)\n", o.ShortUUID, o.ObjectType)
	}

	if asJSON {
		return printJSON(result)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRow(table.Row{"Object type", result.ObjectType})
	tw.AppendRow(table.Row{"Development stage", result.DevelopmentStage})
	tw.AppendRow(table.Row{"Confidence", fmt.Sprintf("%.2f", result.ConfidenceScore)})
	tw.AppendRow(table.Row{"Word count", result.WordCount})
	tw.AppendRow(table.Row{"Metadata completeness", fmt.Sprintf("%.2f", result.MetadataCompleteness)})
	tw.AppendRow(table.Row{"Reasoning", result.Reasoning})
	for i, s := range result.SuggestedImprovements {
		tw.AppendRow(table.Row{fmt.Sprintf("Suggestion %d", i+1), s})
	}
	tw.Render()
	return nil
}
