package render

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
)

// Instance renders GPU instances
type Instance struct{}

// Header returns the instance header
func (*Instance) Header() model1.Header {
	return model1.Header{
		{Name: "ID"},
		{Name: "PROVIDER", Attrs: model1.Attrs{Sort: "provider"}},
		{Name: "REGION", Attrs: model1.Attrs{Wide: true, Sort: "region"}},
		{Name: "ZONE", Attrs: model1.Attrs{Sort: "zone"}},
		{Name: "TYPE", Attrs: model1.Attrs{Sort: "type"}},
		{Name: "STATUS", Attrs: model1.Attrs{Sort: "status"}},
		{Name: "GPU"},
		{Name: "MODEL"},
		{Name: "IP", Attrs: model1.Attrs{Wide: true}},
		{Name: "COST/H", Attrs: model1.Attrs{Capacity: true, Sort: "cost_per_hour"}},
		{Name: "TOTAL", Attrs: model1.Attrs{Capacity: true, Sort: "total_cost"}},
		{Name: "ERROR", Attrs: model1.Attrs{Wide: true}},
		{Name: "AGE", Attrs: model1.Attrs{Time: true, Sort: "created_at"}},
	}
}

// Render renders an instance to a row
func (*Instance) Render(o any, row *model1.Row) error {
	obj, ok := o.(dao.Object)
	if !ok {
		return fmt.Errorf("expected Object, got %T", o)
	}
	i, ok := obj.GetRaw().(*dao.Instance)
	if !ok {
		return fmt.Errorf("expected *dao.Instance, got %T", obj.GetRaw())
	}

	status := i.Status
	if i.ProgressPercent != nil && *i.ProgressPercent < 100 && status != StateReady {
		status = fmt.Sprintf("%s (%d%%)", status, *i.ProgressPercent)
	}

	row.ID = i.ID
	row.Fields = model1.Fields{
		ShortID(i.ID),
		NA(i.ProviderName),
		NA(i.Region),
		NA(i.Zone),
		NA(i.InstanceType),
		status,
		gpus(i.GPUCount, i.GPUVRAM),
		NA(StrPtrToStr(i.ModelName)),
		NA(StrPtrToStr(i.IPAddress)),
		FormatCost(i.CostPerHour),
		FormatCost(i.TotalCost),
		JoinStrings(": ", StrPtrToStr(i.ErrorCode), StrPtrToStr(i.ErrorMessage)),
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc returns the instance colorer
func (*Instance) ColorerFunc() model1.ColorerFunc {
	return func(h model1.Header, re *model1.RowEvent) tcell.Color {
		if re.Kind == model1.EventPending || !model1.IsValid(h, re.Row) {
			return model1.DefaultColorer(h, re)
		}
		idx, ok := h.IndexOf("STATUS", true)
		if !ok || idx >= len(re.Row.Fields) {
			return model1.DefaultColorer(h, re)
		}

		switch status := firstWord(re.Row.Fields[idx]); status {
		case StateReady:
			if re.Kind == model1.EventUpdate {
				return model1.ModColor
			}
			return model1.StdColor
		case StateProvisioning, StateBooting, StateInstalling, StateStarting:
			return model1.AddColor
		case StateDraining, StateTerminating:
			return model1.PendingColor
		case StateTerminated, StateArchived:
			return model1.KillColor
		case StateUnavailable:
			return model1.ErrColor
		default:
			if isFailure(status) {
				return model1.ErrColor
			}
			return model1.DefaultColorer(h, re)
		}
	}
}

func gpus(count, vram *int) string {
	switch {
	case count == nil && vram == nil:
		return NAValue
	case vram == nil:
		return fmt.Sprintf("%dx", *count)
	case count == nil:
		return fmt.Sprintf("%dGB", *vram)
	default:
		return fmt.Sprintf("%dx%dGB", *count, *vram)
	}
}
