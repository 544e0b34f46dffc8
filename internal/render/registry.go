package render

import (
	"fmt"
	"strings"

	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
)

// RendererFor returns the appropriate renderer for the given resource ID.
func RendererFor(rid *dao.ResourceID) (model1.Renderer, error) {
	switch *rid {
	case dao.InstanceRID:
		return &Instance{}, nil
	case dao.UserRID:
		return &User{}, nil
	case dao.ActionLogRID:
		return &ActionLog{}, nil
	case dao.ArchiveRID:
		return &Archive{}, nil
	default:
		return nil, fmt.Errorf("no renderer for resource: %s", rid)
	}
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

func isFailure(status string) bool {
	return status == ActionFailed || strings.HasSuffix(status, "_failed") || strings.HasSuffix(status, "error")
}
