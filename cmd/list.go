package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	gojson "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/config"
	"github.com/inventiv/ivs/internal/config/data"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model"
	"github.com/inventiv/ivs/internal/vlist"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"

	defaultListRows = 20
	// chrome is the terminal lines taken by borders, header and footer.
	chrome = 6
)

type listOptions struct {
	scroll   int
	rows     int
	filter   string
	sort     string
	desc     bool
	archived bool
	wide     bool
	output   string

	list data.List
}

func newListCmd() *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "Print one window of a resource without the terminal UI",
		Long: `list loads the rows of RESOURCE visible at the requested scroll position
through the same paging engine as the terminal UI and prints them.`,
		Example: `  ivs list instances --filter h100 --sort total_cost --desc
  ivs list logs --filter "component=api status=failed" --scroll 400
  ivs list users -o yaml --rows 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := bootstrap(ivsFlags)
			if err != nil {
				return err
			}
			defer s.Close()

			aliases := config.NewAliases()
			if err := aliases.Load(); err != nil {
				s.log.Warn("failed to load aliases", "error", err)
			}
			if !cmd.Flags().Changed("rows") {
				o.rows = terminalRows(cmd.OutOrStdout())
			}
			o.list = s.cfg.Ivs.List

			ctx, cancel := withTimeout(cmd.Context(), s.cfg)
			defer cancel()

			return listResource(ctx, cmd.OutOrStdout(), s.factory, aliases, args[0], o, s.log)
		},
	}

	ff := cmd.Flags()
	ff.IntVar(&o.scroll, "scroll", 0, "Index of the first row to print")
	ff.IntVarP(&o.rows, "rows", "n", defaultListRows, "Number of rows to print, defaults to the terminal height")
	ff.StringVarP(&o.filter, "filter", "f", "", "Server side filter")
	ff.StringVarP(&o.sort, "sort", "s", "", "Sort key")
	ff.BoolVar(&o.desc, "desc", false, "Sort descending")
	ff.BoolVarP(&o.archived, "archived", "A", false, "Include archived rows")
	ff.BoolVarP(&o.wide, "wide", "w", false, "Show wide columns")
	ff.StringVarP(&o.output, "output", "o", outputTable, "Output format (table, yaml, json)")

	return cmd
}

// terminalRows sizes the window to the terminal when printing to one.
func terminalRows(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultListRows
	}
	_, h, err := term.GetSize(int(f.Fd()))
	if err != nil || h <= chrome {
		return defaultListRows
	}

	return h - chrome
}

// listResource drives a table model on a private loop until the requested
// window is loaded, then prints it.
func listResource(ctx context.Context, w io.Writer, f dao.Factory, aliases *config.Aliases, name string, o listOptions, log *slog.Logger) error {
	switch o.output {
	case outputTable, outputYAML, outputJSON:
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
	if o.rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", o.rows)
	}

	var rid dao.ResourceID
	if err := rid.Parse(aliases.Get(name)); err != nil {
		if ss := aliases.Suggest(name, 1); len(ss) > 0 {
			return fmt.Errorf("unknown resource %q, did you mean %q?", name, ss[0])
		}
		return fmt.Errorf("unknown resource %q", name)
	}

	loop := vlist.NewLoop(64)
	defer loop.Stop()

	t := model.NewTable(&rid, f, model.TableOptions{
		PageSize:       o.list.PageSize,
		Overscan:       o.list.Overscan,
		MaxCachedPages: o.list.MaxCachedPages,
		Dispatch:       loop.Dispatch,
		Logger:         log,
	})
	if err := t.Init(); err != nil {
		return err
	}
	defer t.Close()

	q := t.Query()
	q.Filter, q.Archived = o.filter, o.archived
	if o.sort != "" {
		if !slices.Contains(t.Header().SortKeys(), o.sort) {
			return fmt.Errorf("%s cannot be sorted by %q, use one of %v", rid, o.sort, t.Header().SortKeys())
		}
		q.SortBy, q.SortDir = o.sort, client.SortAsc
	}
	if o.desc && q.SortBy != "" {
		q.SortDir = client.SortDesc
	}

	t.Resize(o.rows+1, 1)
	t.SetQuery(q)

	l := t.List()
	if err := loop.RunUntil(ctx, func() bool {
		return l.CountsKnown() || t.LastError() != nil
	}); err != nil {
		return fmt.Errorf("%s: %w", rid, err)
	}
	if err := t.LastError(); err != nil {
		return err
	}

	t.ScrollToIndex(o.scroll)
	if err := loop.RunUntil(ctx, func() bool {
		return (l.Loaded() && l.Idle()) || t.LastError() != nil
	}); err != nil {
		return fmt.Errorf("%s: %w", rid, err)
	}
	if err := t.LastError(); err != nil {
		return err
	}

	top, n := l.TopIndex(), l.VisibleRows()
	rows := make([]model.IndexedRow, 0, n)
	for _, r := range t.Rows() {
		if r.Loaded && r.Index >= top && r.Index < top+n {
			rows = append(rows, r)
		}
	}
	log.Debug("window loaded", "resource", rid.String(), "top", top, "rows", len(rows), "counts", l.Counts().String())

	switch o.output {
	case outputYAML, outputJSON:
		return printRaw(w, t, rows, o.output)
	default:
		return printTable(w, t, rows, o.wide)
	}
}

func printTable(w io.Writer, t *model.Table, rows []model.IndexedRow, wide bool) error {
	h := t.Header()
	cols := h.Columns(wide)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	head := table.Row{"#"}
	for _, c := range h.ColumnNames(wide) {
		head = append(head, c)
	}
	tw.AppendHeader(head)
	for _, r := range rows {
		row := table.Row{r.Index}
		for _, c := range cols {
			row = append(row, r.Event.Row.Fields[c])
		}
		tw.AppendRow(row)
	}

	c := t.Counts()
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d matching (%d total)", len(rows), c.Filtered, c.Total)})
	tw.Render()

	return nil
}

func printRaw(w io.Writer, t *model.Table, rows []model.IndexedRow, output string) error {
	items := make([]any, 0, len(rows))
	for _, r := range rows {
		o, ok := t.RowAt(r.Index)
		if !ok {
			return errors.New("row evicted while printing")
		}
		items = append(items, o.GetRaw())
	}

	if output == outputJSON {
		enc := gojson.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return err
	}

	return enc.Close()
}
