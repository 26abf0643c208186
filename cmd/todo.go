package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/tock/internal/alert"
	"github.com/marcus/tock/internal/dateparse"
	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/output"
	"github.com/marcus/tock/internal/status"
	"github.com/spf13/cobra"
)

var todoCmd = &cobra.Command{
	Use:     "todo",
	Short:   "Plan tasks for a day",
	GroupID: "track",
}

var todoAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Plan a task",
	Long: `Plan a task for a day.

--date accepts 2026-03-01, today, tomorrow, monday, +3d, next-week and similar.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			output.Error("name is required")
			return fmt.Errorf("name is required")
		}
		dateStr, _ := cmd.Flags().GetString("date")
		date, err := dateparse.ParseDay(dateStr, timeNow())
		if err != nil {
			output.Error("--date: %v", err)
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

		todo := models.NewTodo(name, rf.project, rf.tags, rf.rate, rf.currency, date)
		exists, err := a.db.Todos().Exists(todo.UID)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if exists {
			todo.Touch(timeNow())
			err = a.db.Todos().Update(todo)
		} else {
			err = a.db.Todos().Insert(todo)
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Planned %s", output.FormatTodo(todo))
		return nil
	},
}

var todoListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List planned tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		todos, err := a.db.Todos().ListActive()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		shown := make([]models.Todo, 0, len(todos))
		for _, t := range todos {
			if all || !t.IsCompleted {
				shown = append(shown, t)
			}
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(shown)
		}
		if len(shown) == 0 {
			fmt.Println("Nothing planned.")
			return nil
		}
		for i := range shown {
			fmt.Println(output.FormatTodo(&shown[i]))
		}
		return nil
	},
}

var todoDoneCmd = &cobra.Command{
	Use:   "done <uid>",
	Short: "Mark a planned task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		uid, err := resolveUID(a.db.Todos(), "todo", args[0])
		if err != nil {
			return err
		}
		todo, err := a.db.Todos().FetchByUID(uid)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		undo, _ := cmd.Flags().GetBool("undo")
		if todo.IsCompleted == !undo {
			fmt.Println(output.FormatTodo(todo))
			return nil
		}
		todo.IsCompleted = !undo
		todo.Touch(timeNow())
		if err := a.db.Todos().Update(todo); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("%s", output.FormatTodo(todo))
		return nil
	},
}

var todoRmCmd = &cobra.Command{
	Use:     "rm <uid>",
	Aliases: []string{"delete"},
	Short:   "Delete a planned task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(status.Discard)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		uid, err := resolveUID(a.db.Todos(), "todo", args[0])
		if err != nil {
			return err
		}
		todo, err := a.db.Todos().FetchByUID(uid)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		intent := alert.ConfirmDeleteTodo{UID: uid, Label: fmt.Sprintf("%q (%s)", todo.Name, output.ShortUID(uid))}
		ran, err := newDispatcher(cmd, a).Dispatch(cmd.Context(), intent)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if ran {
			output.Success("Deleted todo %s", output.ShortUID(uid))
		}
		return nil
	},
}

func init() {
	todoAddCmd.Flags().String("date", "today", "day the task is planned for")
	addRecordFlags(todoAddCmd.Flags())

	todoListCmd.Flags().BoolP("all", "a", false, "include completed todos")
	todoListCmd.Flags().Bool("json", false, "output JSON")

	todoDoneCmd.Flags().Bool("undo", false, "mark the todo as not completed")

	todoRmCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	todoCmd.AddCommand(todoAddCmd, todoListCmd, todoDoneCmd, todoRmCmd)
	rootCmd.AddCommand(todoCmd)
}
