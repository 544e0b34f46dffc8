// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/inventiv/ivs/internal/config/data"
)

// ErrNoEditor is returned when no editor could be found.
var ErrNoEditor = errors.New("no editor found, set $EDITOR")

// OpenInEditor suspends the TUI and opens content in the user editor. The
// control plane rows are read only, edits are discarded.
func OpenInEditor(app *App, name, content string) error {
	argv, err := editorCommand()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "ivs-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, data.SanitizeFileName(name))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	var runErr error
	suspended := app.Suspend(func() {
		cmd := exec.Command(argv[0], append(argv[1:], path)...)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		runErr = cmd.Run()
	})
	if !suspended {
		return errors.New("failed to suspend application")
	}
	if runErr != nil {
		return fmt.Errorf("editor %s: %w", argv[0], runErr)
	}

	after, err := os.ReadFile(path)
	if err == nil && !bytes.Equal(after, []byte(content)) {
		app.Flash().Warn("Read only view, changes were discarded")
	}

	return nil
}

// editorCommand returns the editor argv from $EDITOR or $VISUAL, falling
// back to vim then nano.
func editorCommand() ([]string, error) {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if argv := strings.Fields(os.Getenv(env)); len(argv) > 0 {
			return argv, nil
		}
	}
	for _, bin := range []string{"vim", "nano"} {
		if _, err := exec.LookPath(bin); err == nil {
			return []string{bin}, nil
		}
	}

	return nil, ErrNoEditor
}
