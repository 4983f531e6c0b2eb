package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	readlater "github.com/unowned-ai/readlater"
	"github.com/unowned-ai/readlater/pkg/config"
	pkgdb "github.com/unowned-ai/readlater/pkg/db"
	"github.com/unowned-ai/readlater/pkg/logger"
)

var (
	configPath string
	dbPath     string
	walMode    bool
	syncMode   string

	cfg *config.Config
	log logger.Logger = logger.NewNop()
)

var rootCmd = &cobra.Command{
	Use:     "readlater",
	Short:   "A Telegram bot that keeps links and notes to read or watch later.",
	Version: fmt.Sprintf("v%s", readlater.Version),
	// Configuration is loaded once for every subcommand; flags win over
	// the file and the environment.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Root().PersistentFlags()
		if flags.Changed("db") {
			loaded.Database.Path = dbPath
		}
		if flags.Changed("wal") {
			loaded.Database.WAL = walMode
		}
		if flags.Changed("sync") {
			loaded.Database.Sync = strings.ToUpper(syncMode)
			if err := config.Validate(loaded); err != nil {
				return err
			}
		}
		cfg = loaded

		l, err := logger.New(cfg.Logging)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for readlater.

The command prints a completion script to stdout.

Examples:

  Bash (current shell):
    $ source <(readlater completion bash)

  Zsh:
    $ readlater completion zsh > "${fpath[1]}/_readlater"

  Fish:
    $ readlater completion fish > ~/.config/fish/completions/readlater.fish

  PowerShell:
    PS> readlater completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// Completion needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version number of readlater",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), readlater.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the readlater database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create the database or bring its schema to the current version",
	Long: `Connects to the SQLite database (--db, READLATER_DB or the config file) and
initializes the content schema when missing. Databases written by a newer
release are rejected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedDBPath()
		if err != nil {
			return err
		}
		cmd.Printf("Upgrading database at %s (WAL: %t, Sync: %s)\n", path, cfg.Database.WAL, cfg.Database.Sync)

		dbConn, err := pkgdb.OpenDBConnection(path, cfg.Database.WAL, cfg.Database.Sync)
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		if err := pkgdb.UpgradeDB(dbConn, log, path, pkgdb.TargetSchemaVersion); err != nil {
			return err
		}
		cmd.Printf("Schema version %d\n", pkgdb.TargetSchemaVersion)
		return nil
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (defaults to a system-specific location)")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", false, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", config.DefaultSync, "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")

	dbCmd.AddCommand(dbUpgradeCmd)

	initConsoleCmd()
	initItemsCmd()
	initTagsCmd()
	initStatsCmd()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, serveCmd, consoleCmd, mcpCmd, itemsCmd, tagsCmd, statsCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
