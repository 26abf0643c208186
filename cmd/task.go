package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcus/tock/internal/alert"
	"github.com/marcus/tock/internal/dateparse"
	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/output"
	"github.com/marcus/tock/internal/status"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Record and manage tracked time",
	GroupID: "track",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Record a task",
	Long: `Record a finished task.

Times accept "now", "09:30", "2026-03-01 09:30", RFC 3339 or an offset
such as "-90m". Give either --stop or --duration; without both the task ends now.`,
	Example: `  tock task add "Write report" --start 09:00 --stop 10:30 -p acme --tags writing
  tock task add "Standup" --start -15m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			output.Error("name is required")
			return fmt.Errorf("name is required")
		}

		start, stop, err := taskTimes(cmd, timeNow())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		rf, err := readRecordFlags(cmd.Flags())
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

		task := models.NewTask(name, start, stop, rf.tags, rf.project, rf.rate, rf.currency)
		if err := a.db.Tasks().Insert(task); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Recorded %s", output.FormatTask(task))
		return nil
	},
}

// taskTimes resolves --start, --stop and --duration against now.
func taskTimes(cmd *cobra.Command, now time.Time) (time.Time, time.Time, error) {
	startStr, _ := cmd.Flags().GetString("start")
	stopStr, _ := cmd.Flags().GetString("stop")
	dur, _ := cmd.Flags().GetDuration("duration")

	if stopStr != "" && dur != 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--stop and --duration are mutually exclusive")
	}
	if dur < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--duration must be positive")
	}

	start, err := dateparse.ParseTime(startStr, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	stop := now
	switch {
	case stopStr != "":
		if stop, err = dateparse.ParseTime(stopStr, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--stop: %w", err)
		}
	case dur > 0:
		stop = start.Add(dur)
	}
	if stop.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("task stops before it starts")
	}
	return start, stop, nil
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		tasks, err := a.db.Tasks().ListActive()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		project, _ := cmd.Flags().GetString("project")
		sinceStr, _ := cmd.Flags().GetString("since")
		var since time.Time
		if sinceStr != "" {
			if since, err = dateparse.ParseDay(sinceStr, timeNow()); err != nil {
				output.Error("--since: %v", err)
				return err
			}
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			filtered := make([]models.Task, 0, len(tasks))
			for _, t := range tasks {
				if keepTask(&t, project, since) {
					filtered = append(filtered, t)
				}
			}
			return output.JSON(filtered)
		}

		var total time.Duration
		n := 0
		for i := range tasks {
			t := &tasks[i]
			if !keepTask(t, project, since) {
				continue
			}
			fmt.Println(output.FormatTask(t))
			total += t.Duration()
			n++
		}
		if n == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		fmt.Printf("\n%d tasks, %s\n", n, output.FormatDuration(total))
		return nil
	},
}

func keepTask(t *models.Task, project string, since time.Time) bool {
	if project != "" && !strings.EqualFold(t.Project, project) {
		return false
	}
	return since.IsZero() || !t.StartTime.Before(since)
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <uid>",
	Short: "Change a recorded task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		uid, err := resolveUID(a.db.Tasks(), "task", args[0])
		if err != nil {
			return err
		}
		task, err := a.db.Tasks().FetchByUID(uid)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		now := timeNow()
		flags := cmd.Flags()
		if flags.Changed("name") {
			name, _ := flags.GetString("name")
			task.Name = strings.TrimSpace(name)
		}
		if flags.Changed("start") {
			s, _ := flags.GetString("start")
			if task.StartTime, err = dateparse.ParseTime(s, now); err != nil {
				output.Error("--start: %v", err)
				return err
			}
		}
		if flags.Changed("stop") {
			s, _ := flags.GetString("stop")
			if task.StopTime, err = dateparse.ParseTime(s, now); err != nil {
				output.Error("--stop: %v", err)
				return err
			}
		}
		if flags.Changed("tags") || flags.Changed("project") || flags.Changed("rate") || flags.Changed("currency") {
			rf, err := readRecordFlags(cmd.Flags())
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if flags.Changed("tags") {
				task.Tags = rf.tags
			}
			if flags.Changed("project") {
				task.Project = rf.project
			}
			if flags.Changed("rate") {
				task.Rate = rf.rate
			}
			if flags.Changed("currency") {
				task.Currency = rf.currency
			}
		}
		if task.Name == "" {
			output.Error("name is required")
			return fmt.Errorf("name is required")
		}
		if task.StopTime.Before(task.StartTime) {
			output.Error("task stops before it starts")
			return fmt.Errorf("task stops before it starts")
		}

		task.Touch(now)
		if err := a.db.Tasks().Update(task); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Updated %s", output.FormatTask(task))
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm <uid>",
	Aliases: []string{"delete"},
	Short:   "Delete a recorded task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		uid, err := resolveUID(a.db.Tasks(), "task", args[0])
		if err != nil {
			return err
		}
		task, err := a.db.Tasks().FetchByUID(uid)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		intent := alert.ConfirmDeleteTask{UID: uid, Label: fmt.Sprintf("%q (%s)", task.Name, output.ShortUID(uid))}
		ran, err := newDispatcher(cmd, a).Dispatch(cmd.Context(), intent)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if ran {
			output.Success("Deleted task %s", output.ShortUID(uid))
		}
		return nil
	},
}

func init() {
	taskAddCmd.Flags().String("start", "now", "start time")
	taskAddCmd.Flags().String("stop", "", "stop time (default now)")
	taskAddCmd.Flags().Duration("duration", 0, "length of the task, e.g. 45m")
	addRecordFlags(taskAddCmd.Flags())

	taskListCmd.Flags().StringP("project", "p", "", "only tasks in this project")
	taskListCmd.Flags().String("since", "", "only tasks starting on or after this day")
	taskListCmd.Flags().Bool("json", false, "output JSON")

	taskEditCmd.Flags().String("name", "", "new name")
	taskEditCmd.Flags().String("start", "", "new start time")
	taskEditCmd.Flags().String("stop", "", "new stop time")
	addRecordFlags(taskEditCmd.Flags())

	taskRmCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskEditCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
