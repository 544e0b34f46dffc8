package render

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
)

// ActionLog renders action audit entries
type ActionLog struct{}

// Header returns the action log header. The order is fixed server side.
func (*ActionLog) Header() model1.Header {
	return model1.Header{
		{Name: "TYPE"},
		{Name: "COMPONENT"},
		{Name: "STATUS"},
		{Name: "INSTANCE"},
		{Name: "DURATION", Attrs: model1.Attrs{Capacity: true}},
		{Name: "TRANSITION", Attrs: model1.Attrs{Wide: true}},
		{Name: "ERROR", Attrs: model1.Attrs{Wide: true}},
		{Name: "AGE", Attrs: model1.Attrs{Time: true}},
	}
}

// Render renders an action log to a row
func (*ActionLog) Render(o any, row *model1.Row) error {
	obj, ok := o.(dao.Object)
	if !ok {
		return fmt.Errorf("expected Object, got %T", o)
	}
	a, ok := obj.GetRaw().(*dao.ActionLog)
	if !ok {
		return fmt.Errorf("expected *dao.ActionLog, got %T", obj.GetRaw())
	}

	var transition string
	if a.InstanceStatusBefore != nil || a.InstanceStatusAfter != nil {
		transition = NA(StrPtrToStr(a.InstanceStatusBefore)) + " -> " + NA(StrPtrToStr(a.InstanceStatusAfter))
	}

	row.ID = a.ID
	row.Fields = model1.Fields{
		a.ActionType,
		a.Component,
		a.Status,
		NA(ShortID(StrPtrToStr(a.InstanceID))),
		FormatDuration(a.DurationMS),
		transition,
		JoinStrings(": ", StrPtrToStr(a.ErrorCode), StrPtrToStr(a.ErrorMessage)),
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc returns the action colorer
func (*ActionLog) ColorerFunc() model1.ColorerFunc {
	return func(h model1.Header, re *model1.RowEvent) tcell.Color {
		idx, ok := h.IndexOf("STATUS", true)
		if re.Kind == model1.EventPending || !ok || idx >= len(re.Row.Fields) {
			return model1.DefaultColorer(h, re)
		}
		switch status := strings.ToLower(re.Row.Fields[idx]); {
		case status == ActionSuccess:
			return model1.CompletedColor
		case status == ActionInProgress:
			return model1.AddColor
		case isFailure(status):
			return model1.ErrColor
		default:
			return model1.DefaultColorer(h, re)
		}
	}
}
