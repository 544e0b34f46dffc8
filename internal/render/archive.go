package render

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/aws"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
)

// Archive renders archived traces
type Archive struct{}

// Header returns the archive header
func (*Archive) Header() model1.Header {
	return model1.Header{
		{Name: "NAME", Attrs: model1.Attrs{Sort: "key"}},
		{Name: "SIZE", Attrs: model1.Attrs{Capacity: true, Sort: "size"}},
		{Name: "STORAGE-CLASS", Attrs: model1.Attrs{Wide: true}},
		{Name: "ETAG", Attrs: model1.Attrs{Wide: true}},
		{Name: "AGE", Attrs: model1.Attrs{Time: true, Sort: "modified"}},
	}
}

// Render renders an archived trace to a row
func (*Archive) Render(o any, row *model1.Row) error {
	obj, ok := o.(dao.Object)
	if !ok {
		return fmt.Errorf("expected Object, got %T", o)
	}
	info, ok := obj.GetRaw().(*aws.ObjectInfo)
	if !ok {
		return fmt.Errorf("expected *aws.ObjectInfo, got %T", obj.GetRaw())
	}

	row.ID = info.Key
	row.Fields = model1.Fields{
		obj.GetName(),
		FormatSize(info.Size),
		NA(info.StorageClass),
		NA(info.ETag),
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc dims objects in cold storage
func (*Archive) ColorerFunc() model1.ColorerFunc {
	return func(h model1.Header, re *model1.RowEvent) tcell.Color {
		idx, ok := h.IndexOf("STORAGE-CLASS", true)
		if re.Kind == model1.EventPending || !ok || idx >= len(re.Row.Fields) {
			return model1.DefaultColorer(h, re)
		}
		switch re.Row.Fields[idx] {
		case "GLACIER", "DEEP_ARCHIVE", "GLACIER_IR":
			return model1.PendingColor
		default:
			return model1.DefaultColorer(h, re)
		}
	}
}
