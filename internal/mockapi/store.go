package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/render"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE instances (
	id            TEXT PRIMARY KEY,
	provider      TEXT NOT NULL,
	region        TEXT NOT NULL,
	zone          TEXT NOT NULL,
	type          TEXT NOT NULL,
	status        TEXT NOT NULL,
	model         TEXT,
	cost_per_hour REAL,
	created_at    INTEGER NOT NULL,
	terminated_at INTEGER,
	archived      INTEGER NOT NULL DEFAULT 0,
	doc           TEXT NOT NULL
);
CREATE INDEX instances_scope ON instances (archived, created_at);

CREATE TABLE users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	email      TEXT NOT NULL,
	role       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	doc        TEXT NOT NULL
);

CREATE TABLE action_logs (
	id          TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	component   TEXT NOT NULL,
	status      TEXT NOT NULL,
	instance_id TEXT,
	created_at  INTEGER NOT NULL,
	doc         TEXT NOT NULL
);
CREATE INDEX action_logs_created ON action_logs (created_at);
`

// Store holds the mock control plane rows in an in memory sqlite database.
type Store struct {
	db  *sql.DB
	gen *generator
	now func() time.Time
	mx  sync.Mutex
}

// Result is one page of a search together with its counts.
type Result[T any] struct {
	Total    int
	Filtered int
	Rows     []T

	// Stats is set when the search asked for status counts.
	Stats *client.StatusCounts
}

// OpenStore creates the schema and seeds it with ds.
func OpenStore(ctx context.Context, ds Dataset) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := Store{db: db, gen: newGenerator(ds), now: ds.clock()}
	if err := s.seed(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}

	return &s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) seed(ctx context.Context) error {
	g := s.gen
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range g.users() {
		if err := insertUser(ctx, tx, &u); err != nil {
			return err
		}
	}
	ii := g.instances()
	for i := range ii {
		if err := insertInstance(ctx, tx, &ii[i]); err != nil {
			return err
		}
	}
	for _, a := range g.actionLogs(ii) {
		if err := insertActionLog(ctx, tx, &a); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertInstance(ctx context.Context, db execer, i *dao.Instance) error {
	doc, err := gojson.Marshal(i)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO instances
		(id, provider, region, zone, type, status, model, cost_per_hour, created_at, terminated_at, archived, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.ProviderName, i.Region, i.Zone, i.InstanceType, i.Status,
		nullString(i.ModelName), nullFloat(i.CostPerHour),
		i.CreatedAt.UnixMilli(), nullMillis(i.TerminatedAt), i.IsArchived, string(doc),
	)

	return err
}

func insertUser(ctx context.Context, db execer, u *dao.User) error {
	doc, err := gojson.Marshal(u)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, role, created_at, updated_at, doc) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Role, u.CreatedAt.UnixMilli(), u.UpdatedAt.UnixMilli(), string(doc),
	)

	return err
}

func insertActionLog(ctx context.Context, db execer, a *dao.ActionLog) error {
	doc, err := gojson.Marshal(a)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO action_logs (id, action_type, component, status, instance_id, created_at, doc) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ActionType, a.Component, a.Status, nullString(a.InstanceID), a.CreatedAt.UnixMilli(), string(doc),
	)

	return err
}

// SearchInstances returns a page of instances in the archived scope of q.
func (s *Store) SearchInstances(ctx context.Context, q Search) (Result[dao.Instance], error) {
	var w where
	w.add("archived = ?", q.Archived)
	if like, ok := q.like(); ok {
		w.add(`(id LIKE ? ESCAPE '\' OR model LIKE ? ESCAPE '\' OR provider LIKE ? ESCAPE '\'
			OR region LIKE ? ESCAPE '\' OR zone LIKE ? ESCAPE '\' OR type LIKE ? ESCAPE '\'
			OR status LIKE ? ESCAPE '\')`, like, like, like, like, like, like, like)
	}

	var res Result[dao.Instance]
	if err := s.count(ctx, "instances", &w, &res.Total, &res.Filtered); err != nil {
		return res, err
	}

	now := s.now().UnixMilli()
	cost := fmt.Sprintf("((COALESCE(terminated_at, %d) - created_at) / 3600000.0) * cost_per_hour", now)
	order := orderBy(q.SortDir, "DESC", instanceSorts, q.SortBy, "created_at", cost)
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc, "+cost+" FROM instances"+w.String()+order+" LIMIT ? OFFSET ?",
		append(w.args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return res, fmt.Errorf("search instances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	res.Rows = make([]dao.Instance, 0, q.Limit)
	for rows.Next() {
		var (
			doc   string
			total sql.NullFloat64
			i     dao.Instance
		)
		if err := rows.Scan(&doc, &total); err != nil {
			return res, err
		}
		if err := gojson.Unmarshal([]byte(doc), &i); err != nil {
			return res, err
		}
		if total.Valid {
			i.TotalCost = &total.Float64
		}
		res.Rows = append(res.Rows, i)
	}

	return res, rows.Err()
}

// SearchUsers returns a page of users matching the username or email filter.
func (s *Store) SearchUsers(ctx context.Context, q Search) (Result[dao.User], error) {
	var w where
	if like, ok := q.like(); ok {
		w.add(`(username LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`, like, like)
	}

	var res Result[dao.User]
	if err := s.count(ctx, "users", &w, &res.Total, &res.Filtered); err != nil {
		return res, err
	}
	order := orderBy(q.SortDir, "ASC", userSorts, q.SortBy, "username", "")
	rows, err := scanDocs[dao.User](ctx, s.db, "SELECT doc FROM users"+w.String()+order+" LIMIT ? OFFSET ?", append(w.args, q.Limit, q.Offset))
	res.Rows = rows

	return res, err
}

// SearchActionLogs returns a page of action logs, newest first.
func (s *Store) SearchActionLogs(ctx context.Context, q Search) (Result[dao.ActionLog], error) {
	var w where
	for _, k := range dao.ActionFilterKeys {
		v := strings.TrimSpace(q.Filters[k])
		if v == "" {
			continue
		}
		// api was called backend before.
		if k == "component" && (v == "api" || v == "backend") {
			w.add("component IN ('api', 'backend')")
			continue
		}
		w.add(k+" = ?", v)
	}

	var res Result[dao.ActionLog]
	if err := s.count(ctx, "action_logs", &w, &res.Total, &res.Filtered); err != nil {
		return res, err
	}
	if q.IncludeStats {
		st, err := s.statusCounts(ctx, &w)
		if err != nil {
			return res, err
		}
		res.Stats = st
	}
	rows, err := scanDocs[dao.ActionLog](ctx, s.db,
		"SELECT doc FROM action_logs"+w.String()+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(w.args, q.Limit, q.Offset),
	)
	res.Rows = rows

	return res, err
}

// Instance returns a single instance.
func (s *Store) Instance(ctx context.Context, id string) (*dao.Instance, error) {
	ii, err := scanDocs[dao.Instance](ctx, s.db, "SELECT doc FROM instances WHERE id = ?", []any{id})
	if err != nil {
		return nil, err
	}
	if len(ii) == 0 {
		return nil, fmt.Errorf("instance %q: %w", id, sql.ErrNoRows)
	}

	return &ii[0], nil
}

// InstanceIDs returns the ids of the instances in a status.
func (s *Store) InstanceIDs(ctx context.Context, statuses ...string) ([]string, error) {
	if len(statuses) == 0 {
		return nil, errors.New("no status given")
	}
	args := make([]any, 0, len(statuses))
	for _, st := range statuses {
		args = append(args, st)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM instances WHERE archived = 0 AND status IN (?"+strings.Repeat(", ?", len(statuses)-1)+") ORDER BY id",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// apply writes a mutation in a single transaction.
func (s *Store) apply(ctx context.Context, m *Mutation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range m.Instances {
		if err := insertInstance(ctx, tx, &m.Instances[i]); err != nil {
			return fmt.Errorf("write instance %s: %w", m.Instances[i].ID, err)
		}
	}
	for i := range m.ActionLogs {
		if err := insertActionLog(ctx, tx, &m.ActionLogs[i]); err != nil {
			return fmt.Errorf("write action log %s: %w", m.ActionLogs[i].ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) count(ctx context.Context, table string, w *where, total, filtered *int) error {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(total); err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+w.String(), w.args...).Scan(filtered); err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}

	return nil
}

// statusCounts groups the filtered action logs by status.
func (s *Store) statusCounts(ctx context.Context, w *where) (*client.StatusCounts, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM action_logs"+w.String()+" GROUP BY status", w.args...)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var st client.StatusCounts
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("status counts: %w", err)
		}
		switch status {
		case render.ActionSuccess:
			st.Success = n
		case render.ActionFailed:
			st.Failed = n
		case render.ActionInProgress:
			st.InProgress = n
		}
	}

	return &st, rows.Err()
}

func scanDocs[T any](ctx context.Context, db *sql.DB, query string, args []any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var v T
		if err := gojson.Unmarshal([]byte(doc), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, rows.Err()
}

var (
	instanceSorts = map[string]string{
		"created_at":    "created_at",
		"status":        "status COLLATE NOCASE",
		"provider":      "provider COLLATE NOCASE",
		"region":        "region COLLATE NOCASE",
		"zone":          "zone COLLATE NOCASE",
		"type":          "type COLLATE NOCASE",
		"cost_per_hour": "cost_per_hour",
	}
	userSorts = map[string]string{
		"username":   "username COLLATE NOCASE",
		"email":      "email COLLATE NOCASE",
		"role":       "role COLLATE NOCASE",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

// orderBy builds the ORDER BY clause. Unknown keys fall back to def, and id
// breaks ties so pages never overlap.
func orderBy(dir, defDir string, cols map[string]string, key, def, totalCost string) string {
	switch strings.ToLower(dir) {
	case "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		dir = defDir
	}
	col, ok := cols[key]
	if key == "total_cost" && totalCost != "" {
		col, ok = totalCost, true
	}
	if !ok {
		col = cols[def]
	}

	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id %s", col, dir, dir)
}

type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
