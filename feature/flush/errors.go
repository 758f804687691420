package flush

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRunInProgress is returned when a run is requested while another is
// still going.
var ErrRunInProgress = errors.New("a sync run is already in progress")

var (
	// ErrHistoryDisabled is returned by run queries without a history store.
	ErrHistoryDisabled = errors.New("run history is not enabled")
	// ErrArchiveDisabled is returned by report queries without an archive.
	ErrArchiveDisabled = errors.New("report archive is not enabled")
)

// ConfigError reports missing or invalid settings found before any remote
// call.
type ConfigError struct {
	Missing []string
	Invalid []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("configuration error: %s", strings.Join(parts, "; "))
}

func (e *ConfigError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}
