package layout

import "github.com/matzehuels/nodecanvas/pkg/graph"

// Defaults for Config.
const (
	DefaultIterations = 100
	DefaultCooling    = 80.0
	DefaultMargin     = 50.0
	DefaultPadding    = 10.0

	// GridSpacingX and GridSpacingY separate grid cells.
	GridSpacingX = 200.0
	GridSpacingY = 150.0
)

// Config configures the layout algorithms.
type Config struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Force simulation iterations
	Cooling    float64 // Initial temperature (maximum displacement per iteration)
	Margin     float64 // Distance kept from the canvas border
	Padding    float64 // Per-node collision padding
}

// DefaultConfig returns the default 800×600 configuration.
func DefaultConfig() Config {
	return Config{
		Width:      graph.CanvasWidth,
		Height:     graph.CanvasHeight,
		Iterations: DefaultIterations,
		Cooling:    DefaultCooling,
		Margin:     DefaultMargin,
		Padding:    DefaultPadding,
	}
}

// withDefaults replaces zero or negative fields with DefaultConfig values.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.Iterations <= 0 {
		c.Iterations = def.Iterations
	}
	if c.Cooling <= 0 {
		c.Cooling = def.Cooling
	}
	if c.Margin <= 0 {
		c.Margin = def.Margin
	}
	if c.Padding <= 0 {
		c.Padding = def.Padding
	}
	return c
}
