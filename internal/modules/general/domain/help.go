package domain

import (
	"fmt"
	"strings"
)

// CommandInfo is one line of help output.
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
}

// FormatHelp renders the command list with the given prefix.
func FormatHelp(prefix string, commands []CommandInfo) string {
	if len(commands) == 0 {
		return "No commands available."
	}

	lines := make([]string, 0, len(commands)+1)
	lines = append(lines, "**Commands**")
	for _, cmd := range commands {
		invocation := prefix + cmd.Name
		if cmd.Usage != "" {
			invocation += " " + cmd.Usage
		}
		lines = append(lines, fmt.Sprintf("`%s` %s", invocation, cmd.Description))
	}
	return strings.Join(lines, "\n")
}
