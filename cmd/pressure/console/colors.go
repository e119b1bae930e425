package console

import "github.com/fatih/color"

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

// Flag renders a status flag green when it holds the healthy value.
func Flag(value, healthy bool) string {
	if value == healthy {
		return Green(value)
	}
	return Red(value)
}
