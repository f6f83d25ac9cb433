package commands

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command. Aliases are plain phrases that trigger the same
// handler when sent as a whole message, e.g. "取消" for /cancel.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Validate checks that cmd can be registered under name.
func (cmd Command) Validate(name string) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return fmt.Errorf("command %q: name must start with '/'", name)
	case strings.ContainsAny(name, " \t\n"):
		return fmt.Errorf("command %q: name must not contain spaces", name)
	case cmd.Handler == nil || cmd.Description == "":
		return fmt.Errorf("command %s: handler and description are required", name)
	}
	return nil
}

// Phrases returns the trimmed, non-empty aliases.
func (cmd Command) Phrases() []string {
	out := make([]string, 0, len(cmd.Aliases))
	for _, a := range cmd.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Visible reports whether the command belongs in the public command menu.
func (cmd Command) Visible() bool {
	return !cmd.Hidden && !cmd.AdminOnly
}
