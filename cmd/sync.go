package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/marcus/tock/internal/output"
	"github.com/spf13/cobra"
)

// syncTimeout bounds an explicit `tock sync`, refresh and orphan round included.
const syncTimeout = 2 * time.Minute

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Sync local data with the server",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusOnly, _ := cmd.Flags().GetBool("status")
		if statusOnly {
			return runSyncStatus()
		}

		a, err := openApp(output.StatusPrinter{})
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		if full, _ := cmd.Flags().GetBool("full"); full {
			if err := a.db.SetNeedsFullSync(true); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), syncTimeout)
		defer cancel()

		// The orchestrator reports the outcome through the status printer.
		res, err := a.sync.Sync(ctx)
		if err != nil {
			return err
		}
		if res.Dropped > 0 {
			output.Warning("%d records could not be encrypted and were not sent", res.Dropped)
		}
		if res.Skipped > 0 {
			output.Warning("%d remote records could not be decrypted", res.Skipped)
		}
		if res.Failed > 0 {
			output.Warning("%d remote records could not be saved locally", res.Failed)
		}
		return nil
	},
}

func runSyncStatus() error {
	a, err := openApp(nil)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer a.Close()

	report, err := buildSyncReport(a)
	if err != nil {
		output.Error("%v", err)
		return err
	}

	rendered, err := output.RenderMarkdown(report.Markdown())
	if err != nil {
		// Fall back to the raw markdown.
		fmt.Println(report.Markdown())
		return nil
	}
	fmt.Println(rendered)
	return nil
}

func buildSyncReport(a *app) (output.SyncReport, error) {
	var r output.SyncReport

	creds, err := a.db.GetCredentials()
	if err != nil {
		return r, fmt.Errorf("load credentials: %w", err)
	}
	if creds != nil {
		r.Email = creds.Email
		r.Server = creds.Server
		r.State = a.auth.State().String()
	}

	st, err := a.db.GetSyncSettings()
	if err != nil {
		return r, fmt.Errorf("load sync settings: %w", err)
	}
	if st.LastSync > 0 {
		r.LastSync = time.Unix(st.LastSync, 0)
	}
	r.NeedsFullSync = st.NeedsFullSync

	if r.Tasks, err = a.db.Tasks().CountActive(); err != nil {
		return r, err
	}
	if r.Shortcuts, err = a.db.Shortcuts().CountActive(); err != nil {
		return r, err
	}
	if r.Todos, err = a.db.Todos().CountActive(); err != nil {
		return r, err
	}
	return r, nil
}

func init() {
	syncCmd.Flags().Bool("status", false, "show sync status instead of syncing")
	syncCmd.Flags().Bool("full", false, "send every local record, not just recent changes")
	rootCmd.AddCommand(syncCmd)
}
