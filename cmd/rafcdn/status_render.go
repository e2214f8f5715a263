package main

import "fmt"

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

func renderCheckLine(label string, passed bool, detail string, colorize bool) string {
	status, color := "OK", ansiGreen
	if !passed {
		status, color = "FAIL", ansiRed
	}
	statusText := fmt.Sprintf("[%s]", status)
	if detail != "" {
		statusText = fmt.Sprintf("[%s] %s", status, detail)
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		return color + line + ansiReset
	}
	return line
}
