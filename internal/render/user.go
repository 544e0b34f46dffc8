package render

import (
	"fmt"

	"github.com/derailed/tcell/v2"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
)

// User renders control plane users
type User struct{}

// Header returns the user header
func (*User) Header() model1.Header {
	return model1.Header{
		{Name: "USERNAME", Attrs: model1.Attrs{Sort: "username"}},
		{Name: "EMAIL", Attrs: model1.Attrs{Sort: "email"}},
		{Name: "ROLE", Attrs: model1.Attrs{Sort: "role"}},
		{Name: "NAME", Attrs: model1.Attrs{Wide: true}},
		{Name: "UPDATED", Attrs: model1.Attrs{Sort: "updated_at"}},
		{Name: "AGE", Attrs: model1.Attrs{Time: true, Sort: "created_at"}},
	}
}

// Render renders a user to a row
func (*User) Render(o any, row *model1.Row) error {
	obj, ok := o.(dao.Object)
	if !ok {
		return fmt.Errorf("expected Object, got %T", o)
	}
	u, ok := obj.GetRaw().(*dao.User)
	if !ok {
		return fmt.Errorf("expected *dao.User, got %T", obj.GetRaw())
	}

	row.ID = u.ID
	row.Fields = model1.Fields{
		u.Username,
		u.Email,
		u.Role,
		NA(JoinStrings(" ", StrPtrToStr(u.FirstName), StrPtrToStr(u.LastName))),
		ToRelative(&u.UpdatedAt),
		ToAge(obj.GetCreatedAt()),
	}
	return nil
}

// ColorerFunc highlights admins
func (*User) ColorerFunc() model1.ColorerFunc {
	return func(h model1.Header, re *model1.RowEvent) tcell.Color {
		idx, ok := h.IndexOf("ROLE", true)
		if re.Kind != model1.EventPending && ok && idx < len(re.Row.Fields) && re.Row.Fields[idx] == "admin" {
			return model1.HighlightColor
		}
		return model1.DefaultColorer(h, re)
	}
}
