package scanner

import "errors"

// errScanInProgress is returned when a scan is requested while a previous
// one is still finalizing its persist step.
var errScanInProgress = errors.New("scan already in progress")

// IsScanInProgress reports whether err is the overlapping-scan error
func IsScanInProgress(err error) bool {
	return errors.Is(err, errScanInProgress)
}
