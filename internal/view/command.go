// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inventiv/ivs/internal/config/data"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/ui"
)

const profileCmd = "profile"

// Command handles user command interpretation and execution.
type Command struct {
	app *App
}

// NewCommand creates a new command interpreter.
func NewCommand(app *App) *Command {
	return &Command{app: app}
}

// Init checks the aliases point at known resources.
func (c *Command) Init() error {
	known := make(map[string]struct{})
	for _, rid := range dao.ListAccessors() {
		known[rid.String()] = struct{}{}
	}
	var errs []error
	for alias, target := range c.app.aliases.All() {
		if target == profileCmd {
			continue
		}
		if _, ok := known[target]; !ok {
			errs = append(errs, fmt.Errorf("alias %q points to unknown resource %q", alias, target))
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.app.Logger().Warn("aliases", "error", err)
	}

	return nil
}

// Run parses and executes a command such as ":instances gpu" or ":ctx prod".
// An empty command shows the last active view.
func (c *Command) Run(cmd string) error {
	cmd = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cmd), ":"))
	if cmd == "" {
		return c.defaultCmd()
	}

	name, args := parseCommand(cmd)
	switch strings.ToLower(name) {
	case "q", "q!", "quit":
		c.app.Stop()
		return nil
	case "help", "h":
		c.app.showHelp()
		return nil
	}

	target := c.app.aliases.Get(name)
	if target == profileCmd {
		if len(args) == 0 {
			return c.app.Inject(NewProfileSwitcher(c.app))
		}
		return c.switchProfile(args[0])
	}

	var rid dao.ResourceID
	if err := rid.Parse(target); err != nil {
		if ss := c.app.aliases.Suggest(name, 1); len(ss) > 0 {
			return fmt.Errorf("unknown command %q, did you mean %q?", name, ss[0])
		}
		return fmt.Errorf("unknown command %q", name)
	}

	return c.showResource(name, &rid, strings.Join(args, " "))
}

// defaultCmd shows the last active view of the profile.
func (c *Command) defaultCmd() error {
	view := c.app.Config().Ivs.DefaultView
	if ctx := c.profileContext(); ctx != nil {
		if v := ctx.GetView(); v != nil && v.Active != "" {
			view = v.Active
		}
	}

	return c.Run(view)
}

// switchProfile tears down the views, activates the profile and reopens its
// last view.
func (c *Command) switchProfile(name string) error {
	c.app.resetContent()
	err := c.app.SwitchProfile(name)
	if err == nil {
		c.app.Flash().Infof("Switched to profile: %s", name)
	}

	return errors.Join(err, c.defaultCmd())
}

// showResource replaces the views with a browser for rid.
func (c *Command) showResource(cmd string, rid *dao.ResourceID, filter string) error {
	v, b := c.viewFor(rid)
	if filter != "" {
		b.WithFilter(filter)
	}

	if err := v.Init(c.app.Context()); err != nil {
		return fmt.Errorf("failed to open %s: %w", rid, err)
	}
	c.app.resetContent()
	c.app.Content.Push(v)
	if ctx := c.profileContext(); ctx != nil {
		ctx.SetView(&data.View{Active: cmd})
	}

	return nil
}

func (c *Command) viewFor(rid *dao.ResourceID) (ui.Component, *Browser) {
	switch *rid {
	case dao.InstanceRID:
		v := NewInstance(c.app)
		return v, v.Browser
	case dao.ArchiveRID:
		v := NewArchive(c.app)
		return v, v.Browser
	default:
		v := NewBrowser(c.app, rid)
		return v, v
	}
}

func (c *Command) profileContext() *data.ProfileContext {
	return c.app.Config().Ivs.ActiveConfig()
}

// parseCommand parses a command string into command name and arguments.
func parseCommand(cmd string) (string, []string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "", nil
	}

	return parts[0], parts[1:]
}
