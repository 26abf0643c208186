package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/marcus/tock/internal/alert"
	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/output"
	"github.com/marcus/tock/internal/status"
	"github.com/spf13/cobra"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var shortcutCmd = &cobra.Command{
	Use:     "shortcut",
	Aliases: []string{"sc"},
	Short:   "Manage task shortcuts",
	GroupID: "track",
}

var shortcutAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Save a task template",
	Long: `Save a task template.

Shortcuts with the same name, tags, project and rate are the same shortcut on
every device.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			output.Error("name is required")
			return fmt.Errorf("name is required")
		}
		rf, err := readRecordFlags(cmd.Flags())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		color, _ := cmd.Flags().GetString("color")
		if color != "" && !hexColor.MatchString(color) {
			output.Error("color must look like #a1b2c3")
			return fmt.Errorf("invalid color %q", color)
		}

		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		sc := models.NewShortcut(name, rf.tags, rf.project, rf.rate, rf.currency, color)
		exists, err := a.db.Shortcuts().Exists(sc.UID)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if exists {
			// Re-adding revives a deleted shortcut and updates its color.
			sc.Touch(timeNow())
			err = a.db.Shortcuts().Update(sc)
		} else {
			err = a.db.Shortcuts().Insert(sc)
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Saved %s", output.FormatShortcut(sc))
		return nil
	},
}

var shortcutListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List shortcuts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		shortcuts, err := a.db.Shortcuts().ListActive()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(shortcuts)
		}
		if len(shortcuts) == 0 {
			fmt.Println("No shortcuts.")
			return nil
		}
		for i := range shortcuts {
			fmt.Println(output.FormatShortcut(&shortcuts[i]))
		}
		return nil
	},
}

var shortcutUseCmd = &cobra.Command{
	Use:   "use <uid>",
	Short: "Record a task from a shortcut",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, stop, err := taskTimes(cmd, timeNow())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		uid, err := resolveUID(a.db.Shortcuts(), "shortcut", args[0])
		if err != nil {
			return err
		}
		sc, err := a.db.Shortcuts().FetchByUID(uid)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		task := models.NewTask(sc.Name, start, stop, sc.Tags, sc.Project, sc.Rate, sc.Currency)
		if err := a.db.Tasks().Insert(task); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Recorded %s", output.FormatTask(task))
		return nil
	},
}

var shortcutRmCmd = &cobra.Command{
	Use:     "rm <uid>",
	Aliases: []string{"delete"},
	Short:   "Delete a shortcut",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		uid, err := resolveUID(a.db.Shortcuts(), "shortcut", args[0])
		if err != nil {
			return err
		}
		sc, err := a.db.Shortcuts().FetchByUID(uid)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		intent := alert.ConfirmDeleteShortcut{UID: uid, Label: fmt.Sprintf("%q (%s)", sc.Name, output.ShortUID(uid))}
		ran, err := newDispatcher(cmd, a).Dispatch(cmd.Context(), intent)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if ran {
			output.Success("Deleted shortcut %s", output.ShortUID(uid))
		}
		return nil
	},
}

func init() {
	addRecordFlags(shortcutAddCmd.Flags())
	shortcutAddCmd.Flags().String("color", "", "display color as #rrggbb")

	shortcutListCmd.Flags().Bool("json", false, "output JSON")

	shortcutUseCmd.Flags().String("start", "now", "start time")
	shortcutUseCmd.Flags().String("stop", "", "stop time (default now)")
	shortcutUseCmd.Flags().Duration("duration", 0, "length of the task, e.g. 45m")

	shortcutRmCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	shortcutCmd.AddCommand(shortcutAddCmd, shortcutListCmd, shortcutUseCmd, shortcutRmCmd)
	rootCmd.AddCommand(shortcutCmd)
}
