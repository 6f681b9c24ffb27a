package fec

// Config parameterizes the encoding window, pacing, and coefficient
// density that a sender/receiver pair must agree on. The values below
// mirror the production constants of the reference FEC extension
// (EW_SIZE=5, FEC_PACE=2, NUM_REPAIR=2, FEC_MAX_DENSITY=15), but here they
// are runtime fields of the component rather than module-level constants,
// so a connection can be tuned without a rebuild.
type Config struct {
	// WindowSize bounds how many recent source payloads the encoder
	// keeps and the receiver expects a repair symbol's window to cover
	// (EW_SIZE).
	WindowSize int
	// Pace is the number of source packets the encoder admits between
	// repair emissions (FEC_PACE).
	Pace int
	// NumRepair is how many repair packets the encoder emits each time
	// pacing triggers (NUM_REPAIR).
	NumRepair int
	// MaxDensity is the density ceiling passed to the coefficient
	// generator (FEC_MAX_DENSITY); at or above this value the generator
	// always runs in dense mode.
	MaxDensity int
}

// DefaultConfig returns the reference production configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize: 5,
		Pace:       2,
		NumRepair:  2,
		MaxDensity: MaxDensity,
	}
}

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = 5
	}
	if c.Pace <= 0 {
		c.Pace = 2
	}
	if c.NumRepair <= 0 {
		c.NumRepair = 2
	}
	if c.MaxDensity <= 0 {
		c.MaxDensity = MaxDensity
	}
	if c.MaxDensity > MaxDensity {
		c.MaxDensity = MaxDensity
	}
	return c
}
