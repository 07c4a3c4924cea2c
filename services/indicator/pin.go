package indicator

// Pin is the output half of a GPIO as the controllers see it.
type Pin interface {
	Number() int
	// ConfigureOutput sets the pin direction to output and drives initial.
	ConfigureOutput(initial bool) error
	Set(level bool)
}

// PinRegistry grants exclusive pin ownership to one device ID at a time.
type PinRegistry interface {
	ClaimGPIO(devID string, pin int) (Pin, error)
	ReleaseGPIO(devID string, pin int)
}
