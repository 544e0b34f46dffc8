// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of ivs

package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/inventiv/ivs/internal/config"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/ui"
)

const (
	// FlashDelay sets the flash auto-clear delay.
	FlashDelay = 5 * time.Second

	connectivityTimeout = 5 * time.Second
	maxSuggestions      = 3
)

// FlashLevel represents flash message severity.
type FlashLevel int

const (
	// FlashInfo represents an info message.
	FlashInfo FlashLevel = iota
	// FlashWarn represents a warning message.
	FlashWarn
	// FlashErr represents an error message.
	FlashErr
)

// Flash handles flash messages in the application.
type Flash struct {
	*tview.TextView
	app    *App
	cancel context.CancelFunc
	mx     sync.RWMutex
}

// NewFlash creates a new Flash instance.
func NewFlash(app *App) *Flash {
	f := &Flash{
		TextView: tview.NewTextView(),
		app:      app,
	}
	f.SetDynamicColors(true)
	f.SetTextAlign(tview.AlignLeft)
	f.SetBorderPadding(0, 0, 1, 1)
	return f
}

// Info displays an informational message.
func (f *Flash) Info(msg string) {
	f.setMessage(FlashInfo, msg)
}

// Infof displays a formatted informational message.
func (f *Flash) Infof(format string, args ...any) {
	f.Info(fmt.Sprintf(format, args...))
}

// Warn displays a warning message.
func (f *Flash) Warn(msg string) {
	f.setMessage(FlashWarn, msg)
}

// Warnf displays a formatted warning message.
func (f *Flash) Warnf(format string, args ...any) {
	f.Warn(fmt.Sprintf(format, args...))
}

// Err displays an error message.
func (f *Flash) Err(err error) {
	if err != nil {
		f.setMessage(FlashErr, err.Error())
	}
}

// Errf displays a formatted error message.
func (f *Flash) Errf(format string, args ...any) {
	f.setMessage(FlashErr, fmt.Sprintf(format, args...))
}

// Clear clears the flash message.
func (f *Flash) Clear() {
	f.mx.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mx.Unlock()

	if f.app != nil && f.app.IsRunning() {
		f.app.QueueUpdateDraw(func() {
			f.TextView.Clear()
		})
	} else {
		f.TextView.Clear()
	}
}

func (f *Flash) setMessage(level FlashLevel, msg string) {
	f.mx.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mx.Unlock()

	if msg == "" {
		f.Clear()
		return
	}

	updateFn := func() {
		f.TextView.Clear()
		f.SetTextColor(flashColor(level))
		fmt.Fprintf(f.TextView, "%s %s", flashPrefix(level), msg)
	}

	if f.app != nil && f.app.IsRunning() {
		f.app.QueueUpdateDraw(updateFn)
	} else {
		updateFn()
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.mx.Lock()
	f.cancel = cancel
	f.mx.Unlock()

	go f.autoClear(ctx)
}

func (f *Flash) autoClear(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(FlashDelay):
		f.Clear()
	}
}

func flashColor(level FlashLevel) tcell.Color {
	switch level {
	case FlashWarn:
		return tcell.ColorYellow
	case FlashErr:
		return tcell.ColorRed
	default:
		return tcell.ColorGreen
	}
}

func flashPrefix(level FlashLevel) string {
	switch level {
	case FlashWarn:
		return "[WARN]"
	case FlashErr:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

// PageStack is a type alias for the view stack.
type PageStack = ui.Pages

// Filterable represents a view with a free text filter.
type Filterable interface {
	Filter() string
	SetFilter(string)
}

// App represents the main application container.
type App struct {
	*tview.Application

	version string
	Main    *tview.Pages
	Content *PageStack
	command *Command
	factory dao.Factory
	cfg     *config.Config
	aliases *config.Aliases
	hotKeys *config.HotKeys
	log     *slog.Logger
	cmdBar  *ui.CmdBar
	menu    *ui.Menu
	crumbs  *ui.Crumbs
	flash   *Flash
	info    *ProfileInfo
	hkActs  *ui.KeyActions

	dispatch  func(func())
	ctx       context.Context
	cancelFn  context.CancelFunc
	running   bool
	resetting bool
	mx        sync.RWMutex
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, aliases *config.Aliases, hotKeys *config.HotKeys, f dao.Factory, log *slog.Logger, version string) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	app := App{
		Application: tview.NewApplication(),
		version:     version,
		Main:        tview.NewPages(),
		Content:     ui.NewPages(),
		factory:     f,
		cfg:         cfg,
		aliases:     aliases,
		hotKeys:     hotKeys,
		log:         log,
		hkActs:      ui.NewKeyActions(),
	}
	app.ctx, app.cancelFn = context.WithCancel(context.Background())
	app.dispatch = func(fn func()) {
		app.Application.QueueUpdateDraw(fn)
	}

	app.flash = NewFlash(&app)
	app.menu = ui.NewMenu()
	app.crumbs = ui.NewCrumbs()
	app.cmdBar = ui.NewCmdBar()
	app.info = NewProfileInfo(&app)

	app.Application.SetInputCapture(app.keyboard)

	app.cmdBar.SetActiveFn(func(active bool) {
		if active {
			app.SetFocus(app.cmdBar)
			return
		}
		if top := app.Content.Top(); top != nil {
			app.SetFocus(top)
		}
	})
	app.cmdBar.SetCommandFn(func(cmd string) {
		if err := app.command.Run(cmd); err != nil {
			app.flash.Err(err)
		}
	})
	app.cmdBar.SetFilterFn(app.applyFilter)
	app.cmdBar.SetCancelFn(func() {
		app.applyFilter("")
	})

	return &app
}

// Init initializes and builds the application layout.
func (a *App) Init() error {
	a.command = NewCommand(a)
	if err := a.command.Init(); err != nil {
		return fmt.Errorf("failed to initialize command: %w", err)
	}
	a.refreshCommands()
	a.cmdBar.SetSuggestFn(func(s string) []string {
		return a.aliases.Suggest(s, maxSuggestions)
	})
	if err := a.bindHotKeys(); err != nil {
		a.log.Warn("hotkeys", "error", err)
	}

	a.Content.AddListener(a.menu)
	a.Content.AddListener(a.crumbs)
	a.Content.AddListener(a)

	a.info.refresh()
	a.Main.AddPage("main", a.buildLayout(), true, true)
	a.SetRoot(a.Main, true)

	return nil
}

// Run starts the application and blocks until it exits.
func (a *App) Run(cmd string) error {
	a.mx.Lock()
	a.running = true
	a.mx.Unlock()

	go a.checkConnectivity()
	go a.watchConfig()

	if err := a.command.Run(cmd); err != nil {
		a.flash.Err(err)
	}

	err := a.Application.Run()
	a.shutdown()

	return err
}

// Stop stops the application.
func (a *App) Stop() {
	a.mx.Lock()
	a.running = false
	a.mx.Unlock()

	a.Application.Stop()
}

// shutdown releases the views once the event loop is done.
func (a *App) shutdown() {
	a.mx.Lock()
	a.running = false
	a.mx.Unlock()

	a.cancelFn()
	a.Content.Clear()
	if err := a.cfg.Ivs.SaveActive(); err != nil {
		a.log.Error("save profile config", "error", err)
	}
}

// IsRunning returns whether the application is currently running.
func (a *App) IsRunning() bool {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.running
}

// Context returns the application lifetime context.
func (a *App) Context() context.Context {
	return a.ctx
}

// Flash returns the flash message handler.
func (a *App) Flash() *Flash {
	return a.flash
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.log
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Version returns the application version.
func (a *App) Version() string {
	return a.version
}

// GetFactory returns the control plane factory.
func (a *App) GetFactory() dao.Factory {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.factory
}

// SwitchProfile switches to a different API profile and reloads the views.
func (a *App) SwitchProfile(profile string) error {
	f := a.GetFactory()
	if f == nil {
		return errors.New("factory not initialized")
	}
	if err := a.cfg.Ivs.SaveActive(); err != nil {
		a.log.Warn("save profile config", "error", err)
	}
	if err := f.SetProfile(profile); err != nil {
		return fmt.Errorf("failed to switch profile: %w", err)
	}
	if _, err := a.cfg.Ivs.ActivateProfile(profile); err != nil {
		return err
	}
	a.info.refresh()
	go a.checkConnectivity()

	return nil
}

// QueueUpdateDraw queues a function to be executed on the UI thread.
func (a *App) QueueUpdateDraw(fn func()) {
	go a.Application.QueueUpdateDraw(fn)
}

// Dispatch posts fn onto the UI goroutine keeping submission order. It must
// not be called from the UI goroutine.
func (a *App) Dispatch(fn func()) {
	a.dispatch(fn)
}

// Inject pushes a component on the content stack.
func (a *App) Inject(c ui.Component) error {
	if err := c.Init(a.ctx); err != nil {
		return err
	}
	a.Content.Push(c)

	return nil
}

// resetContent pops every view without resuming the ones below.
func (a *App) resetContent() {
	a.resetting = true
	defer func() { a.resetting = false }()
	a.Content.Clear()
}

// buildLayout creates the main UI layout.
func (a *App) buildLayout() *tview.Flex {
	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.cmdBar, 0, 1, false).
		AddItem(a.info, 40, 0, false)

	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 3, 0, false).
		AddItem(a.Content, 0, 1, true)

	opts := a.cfg.Ivs.UI
	if opts.Headless {
		return main.AddItem(a.flash, 1, 0, false)
	}
	if !opts.Crumbsless {
		main.AddItem(a.crumbs, 1, 0, false)
	}

	return main.
		AddItem(a.flash, 1, 0, false).
		AddItem(a.menu, 2, 0, false)
}

// keyboard handles global keyboard events.
func (a *App) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	if a.cmdBar.IsActive() || a.Content.IsTopDialog() {
		return evt
	}

	key := ui.AsKey(evt)
	if act, ok := a.hkActs.Get(key); ok {
		return act.Action(evt)
	}

	switch key {
	case ui.KeyColon:
		a.cmdBar.Activate(ui.ModeCommand)
		return nil
	case ui.KeySlash:
		if f, ok := a.Content.Top().(Filterable); ok {
			a.cmdBar.SetFilterText(f.Filter())
			a.cmdBar.Activate(ui.ModeFilter)
			return nil
		}
	case ui.KeyQm:
		a.showHelp()
		return nil
	case ui.KeyQ:
		a.Stop()
		return nil
	case tcell.KeyCtrlC:
		a.quit()
		return nil
	case tcell.KeyEsc:
		a.handleEscape()
		return nil
	}

	return evt
}

func (a *App) quit() {
	ui.NewConfirm(a.Content, "Quit", "Exit ivs?", a.Stop).Show()
}

// applyFilter applies filter to the current view.
func (a *App) applyFilter(filter string) {
	if f, ok := a.Content.Top().(Filterable); ok {
		f.SetFilter(filter)
	}
}

// showHelp displays the key bindings of the current view.
func (a *App) showHelp() {
	if _, ok := a.Content.Top().(*Help); ok {
		return
	}
	var hh ui.MenuHints
	if h, ok := a.Content.Top().(ui.Hinter); ok {
		hh = h.Hints()
	}
	if err := a.Inject(NewHelp(a, hh)); err != nil {
		a.flash.Err(err)
	}
}

// handleEscape clears the filter or goes back.
func (a *App) handleEscape() {
	if f, ok := a.Content.Top().(Filterable); ok && f.Filter() != "" {
		a.cmdBar.ClearFilter()
		return
	}
	if a.Content.Len() > 1 {
		a.Content.Pop()
	}
}

func (a *App) refreshCommands() {
	cmds := append(a.aliases.Names(), "profile", "help", "quit")
	a.cmdBar.SetCommands(cmds)
}

// bindHotKeys maps the configured shortcuts to commands.
func (a *App) bindHotKeys() error {
	a.hkActs = ui.NewKeyActions()

	var errs []error
	for _, name := range a.hotKeys.Names() {
		hk := a.hotKeys.Get(name)
		if hk == nil {
			continue
		}
		key, err := ui.ParseKey(hk.ShortCut)
		if err != nil {
			errs = append(errs, fmt.Errorf("hotkey %s: %w", name, err))
			continue
		}
		cmd := hk.Command
		a.hkActs.Add(key, ui.NewKeyAction(hk.Description, func(*tcell.EventKey) *tcell.EventKey {
			if err := a.command.Run(cmd); err != nil {
				a.flash.Err(err)
			}
			return nil
		}, true))
	}

	return errors.Join(errs...)
}

func (a *App) checkConnectivity() {
	f := a.GetFactory()
	if f == nil || f.Client() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(a.ctx, connectivityTimeout)
	defer cancel()

	ok := f.Client().CheckConnectivity(ctx)
	a.QueueUpdateDraw(func() {
		a.info.setStatus(ok)
		if !ok {
			ui.ErrorDialog(a.Content, "Connection", fmt.Sprintf("Unable to reach %s", f.Client().Endpoint())).Show()
		}
	})
}

// watchConfig reloads aliases, hotkeys and settings edited while running.
func (a *App) watchConfig() {
	err := config.Watch(a.ctx, a.log, func(path string) {
		a.QueueUpdateDraw(func() {
			a.configChanged(path)
		})
	}, config.AppConfigFile, config.AppAliasesFile, config.AppHotkeysFile)
	if err != nil {
		a.log.Warn("config watch disabled", "error", err)
	}
}

func (a *App) configChanged(path string) {
	var err error
	switch path {
	case config.AppAliasesFile:
		if err = a.aliases.LoadFrom(path); err == nil {
			a.refreshCommands()
		}
	case config.AppHotkeysFile:
		if err = a.hotKeys.LoadFrom(path); err == nil {
			err = a.bindHotKeys()
		}
	case config.AppConfigFile:
		err = a.cfg.Load(path, false)
	default:
		return
	}
	if err != nil {
		a.flash.Errf("Reload %s failed: %v", path, err)
		return
	}
	a.flash.Infof("Reloaded %s", path)
}

// StackPushed starts and focuses the new top view.
func (a *App) StackPushed(c ui.Component) {
	a.activate(c)
}

// StackPopped closes the popped view and resumes the one below.
func (a *App) StackPopped(o, top ui.Component) {
	if c, ok := o.(interface{ Close() }); ok {
		c.Close()
	}
	if top != nil && !a.resetting && a.IsRunning() {
		a.activate(top)
	}
}

// StackTop is a no-op.
func (*App) StackTop(ui.Component) {}

func (a *App) activate(c ui.Component) {
	if f, ok := c.(Filterable); ok {
		a.cmdBar.SetFilterText(f.Filter())
	} else {
		a.cmdBar.SetFilterText("")
	}
	c.Start()
	a.SetFocus(c)
}
