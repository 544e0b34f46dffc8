package mockapi

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/render"
)

// Mutation is a batch of rows written together.
type Mutation struct {
	Instances  []dao.Instance
	ActionLogs []dao.ActionLog
}

// Empty reports whether the mutation writes nothing.
func (m *Mutation) Empty() bool {
	return len(m.Instances) == 0 && len(m.ActionLogs) == 0
}

// Change is one event published on the change stream.
type Change struct {
	Topic   string
	Name    string
	Payload client.ChangePayload
}

// Changes returns the stream events announcing the mutation.
func (m *Mutation) Changes(at time.Time) []Change {
	var cc []Change
	if len(m.Instances) > 0 {
		ids := make([]string, 0, len(m.Instances))
		for _, i := range m.Instances {
			ids = append(ids, i.ID)
		}
		cc = append(cc, Change{
			Topic:   client.TopicInstances,
			Name:    client.EventInstanceUpdated,
			Payload: client.ChangePayload{IDs: ids, EmittedAt: at},
		})
	}
	if len(m.ActionLogs) > 0 {
		ids := make([]string, 0, len(m.ActionLogs))
		var iids []string
		for _, a := range m.ActionLogs {
			ids = append(ids, a.ID)
			if a.InstanceID != nil && !slices.Contains(iids, *a.InstanceID) {
				iids = append(iids, *a.InstanceID)
			}
		}
		cc = append(cc, Change{
			Topic:   client.TopicActions,
			Name:    client.EventActionLog,
			Payload: client.ChangePayload{IDs: ids, InstanceIDs: iids, EmittedAt: at},
		})
	}

	return cc
}

type transition struct {
	next, action, component string
}

// lifecycle maps a status to the step the orchestrator takes next.
var lifecycle = map[string]transition{
	render.StateProvisioning: {render.StateBooting, "PROVIDER_CREATE", "orchestrator"},
	render.StateBooting:      {render.StateInstalling, "INSTALL_WORKER", "orchestrator"},
	render.StateInstalling:   {render.StateStarting, "START_WORKER", "worker"},
	render.StateStarting:     {render.StateReady, "HEALTH_CHECK", "orchestrator"},
	render.StateReady:        {render.StateDraining, "SCALE_DOWN", "api"},
	render.StateDraining:     {render.StateTerminating, "TERMINATE_INSTANCE", "orchestrator"},
	render.StateTerminating:  {render.StateTerminated, "PROVIDER_DELETE", "orchestrator"},
	render.StateUnavailable:  {render.StateTerminating, "TERMINATE_INSTANCE", "orchestrator"},
	render.StateTerminated:   {render.StateArchived, "ARCHIVE_INSTANCE", "api"},
}

// Mutate advances up to n instances through their lifecycle, sometimes
// provisions a new one, and records an action log for every step.
func (s *Store) Mutate(ctx context.Context, n int) (*Mutation, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	g, now := s.gen, s.now().UTC()
	var m Mutation

	if g.rnd.IntN(4) == 0 {
		i := g.instance(now, render.StateProvisioning)
		m.Instances = append(m.Instances, i)
		m.ActionLogs = append(m.ActionLogs, g.actionLog("REQUEST_CREATE", "api", render.ActionSuccess, &i, now, "", render.StateProvisioning))
	}

	statuses := make([]string, 0, len(lifecycle))
	for st := range lifecycle {
		statuses = append(statuses, st)
	}
	slices.Sort(statuses)
	ids, err := s.InstanceIDs(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("pick instances: %w", err)
	}

	for range min(n, len(ids)) {
		id := ids[g.rnd.IntN(len(ids))]
		if slices.ContainsFunc(m.Instances, func(i dao.Instance) bool { return i.ID == id }) {
			continue
		}
		i, err := s.Instance(ctx, id)
		if err != nil {
			return nil, err
		}
		// Ready instances mostly stay up.
		if i.Status == render.StateReady && g.rnd.IntN(5) != 0 {
			continue
		}
		a := g.advance(i, now)
		m.Instances = append(m.Instances, *i)
		m.ActionLogs = append(m.ActionLogs, a)
	}

	if m.Empty() {
		return &m, nil
	}
	if err := s.apply(ctx, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// advance moves i one step and returns the action log describing it.
// Installs fail now and then, leaving the instance unavailable.
func (g *generator) advance(i *dao.Instance, at time.Time) dao.ActionLog {
	t := lifecycle[i.Status]
	before := i.Status

	if t.next == render.StateArchived {
		i.IsArchived = true
		return g.actionLog(t.action, t.component, render.ActionSuccess, i, at, before, before)
	}
	if before == render.StateInstalling && g.rnd.IntN(8) == 0 {
		g.setStatus(i, render.StateUnavailable, at)
		return g.actionLog(t.action, t.component, render.ActionFailed, i, at, before, render.StateUnavailable)
	}
	g.setStatus(i, t.next, at)

	return g.actionLog(t.action, t.component, render.ActionSuccess, i, at, before, t.next)
}
