// Package diag writes the one-line diagnostic status emitted on every thermal
// control step.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sweeney/thermofan/internal/logic"
)

// Console writes status lines to w. Write errors are ignored.
type Console struct {
	w     io.Writer
	fanOn *color.Color
	idle  *color.Color
}

// NewConsole creates a Console. Colors follow fatih/color's terminal
// detection unless plain is set.
func NewConsole(w io.Writer, plain bool) *Console {
	fanOn := color.New(color.FgRed, color.Bold)
	idle := color.New(color.FgCyan)
	if plain {
		fanOn.DisableColor()
		idle.DisableColor()
	}
	return &Console{w: w, fanOn: fanOn, idle: idle}
}

// StatusLine writes "<temp>F <state>".
func (c *Console) StatusLine(tempF int, state logic.ThermalState) {
	name := c.idle.Sprint(state)
	if state == logic.ThermalFanOn {
		name = c.fanOn.Sprint(state)
	}
	fmt.Fprintf(c.w, "%dF %s\n", tempF, name)
}
