//go:build rp2040 || rp2350

package platform

import (
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"indicator-go/errcode"
)

// Console configures UART0 for log output. Defaults inside uartx apply to
// zero values.
func Console(baud uint32, tx, rx int) (io.Writer, error) {
	hw := uartx.UART0
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.Pin(tx),
		RX:       machine.Pin(rx),
	}); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "console", err)
	}
	return hw, nil
}
