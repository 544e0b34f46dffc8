package mockapi

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/render"
)

// Dataset sizes the generated control plane.
type Dataset struct {
	Instances  int
	Users      int
	ActionLogs int

	// Seed makes the generated rows reproducible.
	Seed uint64

	// Now anchors generated timestamps. Defaults to time.Now.
	Now func() time.Time
}

// DefaultDataset returns a dataset large enough to exercise paging.
func DefaultDataset() Dataset {
	return Dataset{
		Instances:  2500,
		Users:      140,
		ActionLogs: 12000,
		Seed:       1,
	}
}

func (d Dataset) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

type offer struct {
	provider, region, zone, name string
	gpus, vram                   int
	cost                         float64
}

var (
	catalog = []offer{
		{"scaleway", "fr-par", "fr-par-1", "RENDER-S", 1, 16, 1.221},
		{"scaleway", "fr-par", "fr-par-2", "H100-1-80G", 1, 80, 2.73},
		{"scaleway", "fr-par", "fr-par-2", "H100-2-80G", 2, 80, 5.46},
		{"scaleway", "nl-ams", "nl-ams-1", "L4-1-24G", 1, 24, 0.75},
		{"scaleway", "nl-ams", "nl-ams-1", "L40S-1-48G", 1, 48, 1.4},
		{"scaleway", "pl-waw", "pl-waw-2", "H100-SXM-8-80G", 8, 80, 23.028},
		{"mock", "local", "local-a", "mock-gpu-small", 1, 16, 0.1},
		{"mock", "local", "local-b", "mock-gpu-large", 4, 48, 1.2},
	}

	models = []string{
		"Qwen/Qwen2.5-7B-Instruct",
		"Qwen/Qwen2.5-72B-Instruct",
		"mistralai/Mistral-7B-Instruct-v0.3",
		"meta-llama/Llama-3.1-8B-Instruct",
		"meta-llama/Llama-3.3-70B-Instruct",
		"",
	}

	firstNames = []string{"Alice", "Bruno", "Chloe", "David", "Emma", "Farid", "Gael", "Hugo", "Ines", "Jade", "Karim", "Lea"}
	lastNames  = []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand", "Leroy", "Moreau", "Simon", "Laurent"}

	// Seeded instance statuses and their weights.
	statusWeights = []struct {
		status string
		weight int
	}{
		{render.StateReady, 30},
		{render.StateTerminated, 45},
		{render.StateProvisioning, 4},
		{render.StateBooting, 4},
		{render.StateInstalling, 5},
		{render.StateStarting, 4},
		{render.StateDraining, 2},
		{render.StateTerminating, 3},
		{render.StateUnavailable, 3},
	}

	progress = map[string]int{
		render.StateProvisioning: 10,
		render.StateBooting:      25,
		render.StateInstalling:   50,
		render.StateStarting:     80,
		render.StateReady:        100,
	}
)

var idSpace = uuid.MustParse("6f1c1d2e-58b8-4c0b-9a55-3d4f8d7e2a10")

// generator produces rows deterministically from the dataset seed.
type generator struct {
	rnd  *rand.Rand
	ds   Dataset
	base time.Time
	seq  map[string]int
}

func newGenerator(ds Dataset) *generator {
	return &generator{
		rnd:  rand.New(rand.NewPCG(ds.Seed, ds.Seed^0x9e3779b97f4a7c15)),
		ds:   ds,
		base: ds.clock()().UTC().Truncate(time.Second),
		seq:  make(map[string]int),
	}
}

// id returns the next stable id of a kind.
func (g *generator) id(kind string) string {
	n := g.seq[kind]
	g.seq[kind] = n + 1
	return uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d", kind, n))).String()
}

func (g *generator) users() []dao.User {
	uu := make([]dao.User, 0, g.ds.Users)
	for i := range g.ds.Users {
		first, last := firstNames[i%len(firstNames)], lastNames[(i/len(firstNames))%len(lastNames)]
		username := strings.ToLower(first + "." + last)
		if i >= len(firstNames)*len(lastNames) {
			username += fmt.Sprintf("%d", i)
		}
		role := "user"
		if i%10 == 0 {
			role = "admin"
		}
		created := g.base.Add(-time.Duration(g.ds.Users-i) * 26 * time.Hour)
		u := dao.User{
			ID:        g.id("user"),
			Username:  username,
			Email:     username + "@inventiv.example",
			Role:      role,
			CreatedAt: created,
			UpdatedAt: created.Add(time.Duration(g.rnd.IntN(72)) * time.Hour),
		}
		if i%4 != 3 {
			u.FirstName, u.LastName = &first, &last
		}
		uu = append(uu, u)
	}

	return uu
}

func (g *generator) instances() []dao.Instance {
	ii := make([]dao.Instance, 0, g.ds.Instances)
	for i := range g.ds.Instances {
		created := g.base.Add(-time.Duration(g.ds.Instances-i) * 7 * time.Minute)
		ii = append(ii, g.instance(created, g.pickStatus()))
	}

	return ii
}

func (g *generator) pickStatus() string {
	var total int
	for _, w := range statusWeights {
		total += w.weight
	}
	n := g.rnd.IntN(total)
	for _, w := range statusWeights {
		if n < w.weight {
			return w.status
		}
		n -= w.weight
	}

	return render.StateReady
}

func (g *generator) instance(created time.Time, status string) dao.Instance {
	o := catalog[g.rnd.IntN(len(catalog))]
	i := dao.Instance{
		ID:           g.id("instance"),
		ProviderName: o.provider,
		Region:       o.region,
		Zone:         o.zone,
		InstanceType: o.name,
		GPUCount:     &o.gpus,
		GPUVRAM:      &o.vram,
		CostPerHour:  &o.cost,
		CreatedAt:    created,
	}
	if m := models[g.rnd.IntN(len(models))]; m != "" {
		i.ModelName = &m
	}
	g.setStatus(&i, status, created)
	if i.TerminatedAt != nil {
		end := created.Add(time.Duration(1+g.rnd.IntN(96)) * time.Hour)
		if end.After(g.base) {
			end = g.base
		}
		i.TerminatedAt = &end
	}

	// Half of the terminated instances have been archived.
	if status == render.StateTerminated && g.rnd.IntN(2) == 0 {
		i.IsArchived = true
	}

	return i
}

func (g *generator) setStatus(i *dao.Instance, status string, at time.Time) {
	i.Status = status
	i.ProgressPercent, i.WorkerStatus = nil, nil
	if p, ok := progress[status]; ok {
		i.ProgressPercent = &p
	}

	switch status {
	case render.StateReady, render.StateDraining:
		ip := fmt.Sprintf("51.15.%d.%d", g.rnd.IntN(256), 1+g.rnd.IntN(254))
		ws := "ready"
		if status == render.StateDraining {
			ws = "draining"
		}
		i.IPAddress, i.WorkerStatus = &ip, &ws
	case render.StateUnavailable:
		code, msg := "PROVIDER_CAPACITY", "no capacity left in "+i.Zone
		i.ErrorCode, i.ErrorMessage = &code, &msg
	case render.StateTerminated:
		end := at
		i.TerminatedAt, i.IPAddress = &end, nil
	}
}

var (
	actionTypes = []string{
		"REQUEST_CREATE", "PROVIDER_CREATE", "INSTALL_WORKER", "HEALTH_CHECK",
		"WORKER_HEARTBEAT", "SCALE_DOWN", "TERMINATE_INSTANCE", "ARCHIVE_INSTANCE", "RECONCILE",
	}
	components = []string{"api", "backend", "orchestrator", "worker"}
)

func (g *generator) actionLogs(ii []dao.Instance) []dao.ActionLog {
	aa := make([]dao.ActionLog, 0, g.ds.ActionLogs)
	span := time.Duration(max(1, g.ds.Instances)) * 7 * time.Minute
	for n := range g.ds.ActionLogs {
		at := g.base.Add(-span + time.Duration(n)*span/time.Duration(max(1, g.ds.ActionLogs)))
		var inst *dao.Instance
		if len(ii) > 0 && g.rnd.IntN(10) != 0 {
			inst = &ii[g.rnd.IntN(len(ii))]
		}
		status := render.ActionSuccess
		switch r := g.rnd.IntN(100); {
		case r < 8:
			status = render.ActionFailed
		case r < 11:
			status = render.ActionInProgress
		}
		aa = append(aa, g.actionLog(actionTypes[g.rnd.IntN(len(actionTypes))], components[g.rnd.IntN(len(components))], status, inst, at, "", ""))
	}

	return aa
}

func (g *generator) actionLog(kind, component, status string, inst *dao.Instance, at time.Time, before, after string) dao.ActionLog {
	a := dao.ActionLog{
		ID:         g.id("action"),
		ActionType: kind,
		Component:  component,
		Status:     status,
		CreatedAt:  at,
		Metadata:   map[string]any{"attempt": 1 + g.rnd.IntN(3)},
	}
	if inst != nil {
		id := inst.ID
		a.InstanceID = &id
		a.Metadata["zone"] = inst.Zone
	}
	if before != "" {
		a.InstanceStatusBefore = &before
	}
	if after != "" {
		a.InstanceStatusAfter = &after
	}
	if status != render.ActionInProgress {
		d := 50 + g.rnd.IntN(30_000)
		done := at.Add(time.Duration(d) * time.Millisecond)
		a.DurationMS, a.CompletedAt = &d, &done
	}
	if status == render.ActionFailed {
		code, msg := "WORKER_TIMEOUT", kind+" did not complete in time"
		a.ErrorCode, a.ErrorMessage = &code, &msg
	}

	return a
}
