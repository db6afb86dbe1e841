package syncer

import (
	"fmt"
	"os"
	"time"
)

// Outcome records the result of one repository transfer.
type Outcome struct {
	// Repository is the source repository name.
	Repository string
	// Err is nil when the transfer succeeded or the
	// repository was skipped for having no commits.
	Err error
}

// Report summarizes a completed mirroring run.
type Report struct {
	// Outcomes holds one entry per dispatched
	// repository.
	Outcomes []Outcome

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration

	// NewCount is the number of repositories that did
	// not exist on the destination before the run.
	NewCount int

	// ExistingCount is the number of repositories that
	// already existed on the destination.
	ExistingCount int
}

// Failures returns the outcomes that carry an error.
func (r *Report) Failures() []Outcome {
	var failed []Outcome

	for _, oc := range r.Outcomes {
		if oc.Err != nil {
			failed = append(failed, oc)
		}
	}

	return failed
}

// FormatDuration renders a duration in the
// "00h 02m 13s" form used in run summaries.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	return fmt.Sprintf("%02dh %02dm %02ds", h, m, s)
}

// AppendOutput appends a key=value line to the file at
// path, creating it if needed. CI systems such as GitHub
// Actions pick up step outputs from such files.
func AppendOutput(path, key, value string) error {
	const errCtx = "appending run output"

	//nolint:gosec // path comes from the CI environment
	f, err := os.OpenFile(
		path,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer f.Close() //nolint:errcheck

	if _, err := fmt.Fprintf(
		f, "%s=%s\n", key, value,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
