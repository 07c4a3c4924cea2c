package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: TOML overlaid on Defaults()
// -----------------------------------------------------------------------------

const cfgPico = `
[logging]
level = "info"

[console]
baud = 115200
tx = 0
rx = 1

[[led]]
name = "red"
pin = 16
initial = "slow_blink"

[[led]]
name = "green"
pin = 17
initial = "fast_blink"

[speaker]
name = "piezo"
pin = 15
mode = "off"
sound = "warning1"
`

// The host profile runs the same wiring with a finer tick so audible
// frequencies keep their pitch in the simulator.
const cfgHost = `
[logging]
level = "debug"

[timing]
tick_rate_hz = 100000

[signals]
report_ms = 250

[[led]]
name = "red"
pin = 16
initial = "slow_blink"

[[led]]
name = "green"
pin = 17
initial = "fast_blink"

[speaker]
name = "piezo"
pin = 15
`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"host": []byte(cfgHost),
}
