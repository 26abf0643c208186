package monitor

import (
	"fmt"
	"time"

	"github.com/marcus/tock/internal/db"
)

// Snapshot is the sync state shown by the monitor.
type Snapshot struct {
	Email         string
	Server        string
	State         string
	LastSync      time.Time
	NeedsFullSync bool
	Tasks         int
	Shortcuts     int
	Todos         int
}

// FetchData reads the current sync state from the database.
func FetchData(database *db.DB, state func() string) RefreshDataMsg {
	msg := RefreshDataMsg{Timestamp: time.Now()}
	if state != nil {
		msg.Snapshot.State = state()
	}

	creds, err := database.GetCredentials()
	if err != nil {
		msg.Err = fmt.Errorf("load credentials: %w", err)
		return msg
	}
	if creds != nil {
		msg.Snapshot.Email = creds.Email
		msg.Snapshot.Server = creds.Server
	}

	st, err := database.GetSyncSettings()
	if err != nil {
		msg.Err = fmt.Errorf("load sync settings: %w", err)
		return msg
	}
	if st.LastSync > 0 {
		msg.Snapshot.LastSync = time.Unix(st.LastSync, 0)
	}
	msg.Snapshot.NeedsFullSync = st.NeedsFullSync

	counts := []struct {
		dst   *int
		count func() (int, error)
	}{
		{&msg.Snapshot.Tasks, database.Tasks().CountActive},
		{&msg.Snapshot.Shortcuts, database.Shortcuts().CountActive},
		{&msg.Snapshot.Todos, database.Todos().CountActive},
	}
	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			msg.Err = err
			return msg
		}
		*c.dst = n
	}
	return msg
}
