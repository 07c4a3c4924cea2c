//go:build !rp2040 && !rp2350

package platform

import (
	"io"
	"os"
)

// Console is standard error on a host; the UART settings are ignored.
func Console(baud uint32, tx, rx int) (io.Writer, error) { return os.Stderr, nil }
