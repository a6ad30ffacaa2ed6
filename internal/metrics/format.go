package metrics

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ZeroRate is the rate text shown when nothing was transferred.
const ZeroRate = "00 b/s"

// FormatDuration renders seconds as HH:MM:SS. Hours are not capped at 99.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// FormatRate renders a per-second byte count, e.g. "1.5 KiB/s".
func FormatRate(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return ZeroRate
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}

// FormatDownload prefixes FormatRate with a down arrow.
func FormatDownload(bytesPerSecond int64) string {
	return "↓ " + FormatRate(bytesPerSecond)
}

// FormatUpload prefixes FormatRate with an up arrow.
func FormatUpload(bytesPerSecond int64) string {
	return "↑ " + FormatRate(bytesPerSecond)
}
