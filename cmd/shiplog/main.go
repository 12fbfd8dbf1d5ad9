package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"shiplog/internal/app"
	"shiplog/internal/config"
	"shiplog/internal/database"
	"shiplog/internal/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// app.Close(). operation identifies the CLI command being run.
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// run wraps a command body with app lifecycle and failure recording.
func run(operation string, fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, operation)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(cmd, args, a); err != nil {
			a.Fail()
			return err
		}
		return nil
	}
}

var rootCmd = &cobra.Command{
	Use:           "shiplog",
	Short:         "Local-first vessel logbook data layer",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// export command

var exportArchiveFlag bool
var exportOutputFlag string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full store as a backup snapshot or archive",
	RunE: run("Export", func(cmd *cobra.Command, args []string, a *app.App) error {
		var data []byte
		var err error
		if exportArchiveFlag {
			data, err = a.ExportArchive(cmd.Context())
		} else {
			data, err = a.ExportSnapshot(cmd.Context())
		}
		if err != nil {
			return err
		}

		if exportOutputFlag == "" || exportOutputFlag == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOutputFlag, data, 0644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("Exported to %s (%d bytes)\n", exportOutputFlag, len(data))
		return nil
	}),
}

// import command

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the store contents from a backup file (JSON or zip)",
	Args:  cobra.ExactArgs(1),
	RunE: run("Import", func(cmd *cobra.Command, args []string, a *app.App) error {
		if err := a.Import(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Imported %s\n", args[0])
		return nil
	}),
}

// backup command

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Write a backup archive through the destination chain",
	RunE: run("BackupNow", func(cmd *cobra.Command, args []string, a *app.App) error {
		path, err := a.BackupNow(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", path)
		return nil
	}),
}

var backupCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the daily auto-backup check (silent; for session start and timers)",
	RunE: run("AutoBackup", func(cmd *cobra.Command, args []string, a *app.App) error {
		return a.RunScheduledBackup(cmd.Context())
	}),
}

var backupEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the daily auto-backup",
	RunE: run("EnableAutoBackup", func(cmd *cobra.Command, args []string, a *app.App) error {
		return a.SetAutoBackup(cmd.Context(), true)
	}),
}

var backupDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the daily auto-backup",
	RunE: run("DisableAutoBackup", func(cmd *cobra.Command, args []string, a *app.App) error {
		return a.SetAutoBackup(cmd.Context(), false)
	}),
}

// destination command

var destinationCmd = &cobra.Command{
	Use:   "destination",
	Short: "Manage the persisted backup destination",
}

var destinationSetCmd = &cobra.Command{
	Use:   "set <dir>",
	Short: "Choose the backup destination directory",
	Args:  cobra.ExactArgs(1),
	RunE: run("SetDestination", func(cmd *cobra.Command, args []string, a *app.App) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if err := a.SetDestination(cmd.Context(), dir); err != nil {
			return err
		}
		fmt.Printf("Backup destination set to %s\n", dir)
		return nil
	}),
}

var destinationClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the backup destination",
	RunE: run("ClearDestination", func(cmd *cobra.Command, args []string, a *app.App) error {
		if err := a.ClearDestination(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Backup destination cleared")
		return nil
	}),
}

var destinationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the backup destination",
	RunE: run("ShowDestination", func(cmd *cobra.Command, args []string, a *app.App) error {
		status, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}
		if status.BackupDir == "" {
			fmt.Println("No backup destination set")
		} else {
			fmt.Println(status.BackupDir)
		}
		return nil
	}),
}

// status command

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema version, table counts and backup state",
	RunE: run("Status", func(cmd *cobra.Command, args []string, a *app.App) error {
		status, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Schema version: %d\n", status.SchemaVersion)
		fmt.Printf("Auto-backup:    %v\n", status.AutoBackup)
		if status.LastBackupDate != "" {
			fmt.Printf("Last backup:    %s\n", status.LastBackupDate)
		} else {
			fmt.Printf("Last backup:    never\n")
		}
		if status.BackupDir != "" {
			fmt.Printf("Destination:    %s\n", status.BackupDir)
		}
		fmt.Println("\nTables:")
		for name, n := range status.Counts {
			fmt.Printf("  %-20s %d\n", name, n)
		}
		return nil
	}),
}

// history command

var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	RunE: run("History", func(cmd *cobra.Command, args []string, a *app.App) error {
		ops, err := a.History(cmd.Context(), historyLimitFlag)
		if err != nil {
			return err
		}
		for _, op := range ops {
			fmt.Printf("%s  %-8s  %-20s  %s\n", op.StartedAt, op.Status, op.Name, op.ID)
		}
		return nil
	}),
}

// repair command

var repairCmd = &cobra.Command{
	Use:   "repair <version>",
	Short: "Clear an interrupted migration and force the schema version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if cfg.Database.Type != "sqlite" {
			return fmt.Errorf("repair only applies to sqlite stores")
		}

		db, err := database.OpenConnection(filepath.Join(cfg.Database.DataDir, database.StoreFile))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Force(cmd.Context(), db, version); err != nil {
			return err
		}
		fmt.Printf("Schema version forced to %d; next start re-runs pending migrations\n", version)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportArchiveFlag, "archive", false, "export a zip archive with extracted attachments")
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "output file (default stdout)")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "number of operations to show")

	configCmd.AddCommand(configInitCmd, configListCmd)
	backupCmd.AddCommand(backupNowCmd, backupCheckCmd, backupEnableCmd, backupDisableCmd)
	destinationCmd.AddCommand(destinationSetCmd, destinationClearCmd, destinationShowCmd)

	rootCmd.AddCommand(configCmd, exportCmd, importCmd, backupCmd, destinationCmd, statusCmd, historyCmd, repairCmd)
}
