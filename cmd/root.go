package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/marcus/tock/internal/syncconfig"
	"github.com/spf13/cobra"
)

var (
	version  string
	dataDir  string
	logLevel string

	closeLog = func() error { return nil }
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "tock",
	Short: "Time tracker with end-to-end encrypted sync",
	Long: `tock - A time tracker for tasks, shortcuts and todos.

Records live in a local SQLite database and sync across devices through an
end-to-end encrypted server. The server only ever sees ciphertext.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initDataDir()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if isMutatingCommand(commandKey(cmd)) {
			afterMutation(cmd.Context())
		}
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

// commandKey returns the command path without the root, e.g. "task add".
func commandKey(cmd *cobra.Command) string {
	return strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
}

func init() {
	cobra.OnInitialize(initLogging)

	// Add custom template function for showing aliases
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

	// Need to add the 'add' function for padding calculation
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the local database (default ~/.local/share/tock)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	// Define command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: "track", Title: "Tracking Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	// Assign built-in commands to system group
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

func initLogging() {
	logger, closer := newLogger(logLevelOrConfig(), syncconfig.GetLogFile())
	slog.SetDefault(logger)
	closeLog = closer
}

func initDataDir() error {
	if dataDir != "" {
		return nil
	}
	dir, err := syncconfig.GetDataDir()
	if err != nil {
		return fmt.Errorf("cannot determine data directory: %w", err)
	}
	dataDir = dir
	return nil
}

// getDataDir returns the directory holding the local database
func getDataDir() string {
	return dataDir
}
