// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ideation-engine/internal/migrate"
	"github.com/pdiddy/ideation-engine/pkg/types"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ideation database",
	Long: `Db groups database operations: init stands up or upgrades the schema,
migrate applies pending migrations, validate checks the table set and
foreign keys, stats reports row counts, and cleanup sweeps orphaned
satellite rows.`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or upgrade the database (backup, migrate, validate)",
	RunE: func(cmd *cobra.Command, args []string) error {
		backup, _ := cmd.Flags().GetBool("backup")
		ok, err := migrate.Initialize(viper.GetString("database.path"), backup, os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("database initialization failed")
		}
		return nil
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := migrate.NewManager(viper.GetString("database.path"))
		if err != nil {
			return err
		}
		defer m.Close()

		current, err := m.CurrentVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "current schema version: %d\n", current)

		ok, err := m.MigrateToLatest(os.Stdout)
		if !ok {
			return err
		}
		return nil
	},
}

var dbValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the schema and foreign-key integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := migrate.NewManager(viper.GetString("database.path"))
		if err != nil {
			return err
		}
		defer m.Close()

		report, err := m.ValidateSchema()
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(report)
		}

		if report.Valid {
			fmt.Println("schema valid")
			return nil
		}
		if len(report.MissingTables) > 0 {
			fmt.Printf("missing tables: %v\n", report.MissingTables)
		}
		if report.ForeignKeyViolations > 0 {
			fmt.Printf("foreign key violations: %d\n", report.ForeignKeyViolations)
		}
		return fmt.Errorf("schema validation failed")
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report object and satellite row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		stats, err := e.db.Stats(cmd.Context())
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(stats)
		}

		objectTypes := make([]string, 0, len(stats.ObjectsByType))
		for objectType := range stats.ObjectsByType {
			objectTypes = append(objectTypes, string(objectType))
		}
		sort.Strings(objectTypes)

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Object type", "Count"})
		for _, objectType := range objectTypes {
			tw.AppendRow(table.Row{objectType, stats.ObjectsByType[types.CodexObjectType(objectType)]})
		}
		tw.AppendFooter(table.Row{"total", stats.TotalObjects})
		tw.Render()

		fmt.Printf("tournaments: %d, series: %d, reader panels: %d\n",
			stats.Tournaments, stats.Series, stats.ReaderPanels)
		return nil
	},
}

var dbCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete satellite rows whose references no longer resolve",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		removed, err := e.db.CleanupOrphanedRecords(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d orphaned rows\n", removed)
		return nil
	},
}

func init() {
	dbInitCmd.Flags().Bool("backup", true, "back up an existing database before migrating")
	dbValidateCmd.Flags().Bool("json", false, "output the report as JSON")
	dbStatsCmd.Flags().Bool("json", false, "output counts as JSON")

	dbCmd.AddCommand(dbInitCmd, dbMigrateCmd, dbValidateCmd, dbStatsCmd, dbCleanupCmd)
	rootCmd.AddCommand(dbCmd)
}
