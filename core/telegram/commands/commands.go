package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command couples a slash-command handler with the metadata the registry
// needs: menu description, visibility flags and alternate names.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
