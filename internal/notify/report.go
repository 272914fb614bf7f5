package notify

import (
	"fmt"
	"time"
)

// Event identifies the kind of health transition being reported.
type Event string

const (
	EventFailover Event = "failover"
	EventRecovery Event = "recovery"
)

// Report describes a single failover or recovery transition. It is built
// once by the health monitor, consumed once by the notifier and discarded.
type Report struct {
	Event       Event
	Timestamp   time.Time
	PrimaryURL  string
	BackupURL   string
	FailCount   uint32
	Downtime    time.Duration
	HasDowntime bool
	Message     string
}

// NewFailoverReport builds the report emitted when traffic switches to
// the backup.
func NewFailoverReport(now time.Time, primaryURL, backupURL string, failCount uint32, probeErr error) Report {
	return Report{
		Event:      EventFailover,
		Timestamp:  now,
		PrimaryURL: primaryURL,
		BackupURL:  backupURL,
		FailCount:  failCount,
		Message: fmt.Sprintf(
			"Primary service %s failed after %d consecutive health check failures. Traffic switched to backup: %s. Error: %v",
			primaryURL, failCount, backupURL, probeErr),
	}
}

// NewRecoveryReport builds the report emitted when traffic returns to
// the primary. The downtime is measured from the failover transition.
func NewRecoveryReport(now time.Time, primaryURL, backupURL string, downtime time.Duration) Report {
	return Report{
		Event:       EventRecovery,
		Timestamp:   now,
		PrimaryURL:  primaryURL,
		BackupURL:   backupURL,
		Downtime:    downtime,
		HasDowntime: true,
		Message: fmt.Sprintf(
			"Primary service %s has recovered and is now healthy. Traffic restored to primary after %d seconds on backup.",
			primaryURL, int(downtime.Seconds())),
	}
}
