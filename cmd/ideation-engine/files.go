// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ideation-engine/internal/store"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the file-tree mirror",
	Long: `Files groups file-tree operations: export writes stored objects as
JSON or CSV under exports/, backup copies the data subtrees with a
manifest, and clean removes stale temp files.`,
}

var filesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored objects to a timestamped JSON or CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		objectType, _ := cmd.Flags().GetString("type")
		format, _ := cmd.Flags().GetString("format")

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		filters := store.Filters{ObjectType: types.CodexObjectType(objectType)}
		objects, err := e.db.FindCodexObjects(cmd.Context(), filters, -1, 0)
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			return fmt.Errorf("no objects match the filter")
		}

		category := objectType
		if category == "" {
			category = "all"
		}

		var path string
		switch format {
		case "json":
			path, err = e.files.ExportObjectsJSON(category, objects)
		case "yaml":
			path, err = e.files.ExportObjectsYAML(category, objects)
		case "csv":
			path, err = e.files.ExportObjectsCSV(category, objects)
		default:
			return fmt.Errorf("unknown format %q: use json, yaml, or csv", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("exported %d objects to %s\n", len(objects), path)
		return nil
	},
}

var filesBackupCmd = &cobra.Command{
	Use:   "backup [name]",
	Short: "Copy the data subtrees into a named backup with a manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		path, err := e.files.CreateBackup(name)
		if err != nil {
			return err
		}
		fmt.Printf("backup written to %s\n", path)
		return nil
	},
}

var filesCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove temp files older than the given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		maxAge, _ := cmd.Flags().GetDuration("max-age")

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		removed, err := e.files.CleanupTempFiles(maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d temp files\n", removed)
		return nil
	},
}

func init() {
	filesExportCmd.Flags().String("type", "", "restrict the export to one object type")
	filesExportCmd.Flags().String("format", "json", "export format: json, yaml, or csv")
	filesCleanCmd.Flags().Duration("max-age", 24*time.Hour, "delete temp files older than this")

	filesCmd.AddCommand(filesExportCmd, filesBackupCmd, filesCleanCmd)
	rootCmd.AddCommand(filesCmd)
}
