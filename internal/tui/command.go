package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a parsed ':' command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command line without its leading ':'.
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	name, args, _ := strings.Cut(input, " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

// BookingID parses the command argument as a booking id.
func (c Command) BookingID() (int64, error) {
	id, err := strconv.ParseInt(c.Args, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: %q is not a booking id", c.Name, c.Args)
	}
	return id, nil
}
