package dao

import (
	"net/url"
	"strings"
	"time"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/vlist"
)

func init() {
	RegisterAccessor(ActionLogRID, func() Accessor { return new(ActionLogDAO) })
}

// ActionLogsPath is the action log search endpoint.
const ActionLogsPath = "/action_logs/search"

// ActionFilterKeys lists the filter fields understood by the action log endpoint.
var ActionFilterKeys = []string{"component", "status", "action_type", "instance_id"}

// ActionLog is one control plane action audit entry.
type ActionLog struct {
	ID                   string         `json:"id" yaml:"id"`
	ActionType           string         `json:"action_type" yaml:"actionType"`
	Component            string         `json:"component" yaml:"component"`
	Status               string         `json:"status" yaml:"status"`
	ErrorCode            *string        `json:"error_code,omitempty" yaml:"errorCode,omitempty"`
	ErrorMessage         *string        `json:"error_message,omitempty" yaml:"errorMessage,omitempty"`
	InstanceID           *string        `json:"instance_id,omitempty" yaml:"instanceId,omitempty"`
	DurationMS           *int           `json:"duration_ms,omitempty" yaml:"durationMs,omitempty"`
	CreatedAt            time.Time      `json:"created_at" yaml:"createdAt"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty" yaml:"completedAt,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	InstanceStatusBefore *string        `json:"instance_status_before,omitempty" yaml:"statusBefore,omitempty"`
	InstanceStatusAfter  *string        `json:"instance_status_after,omitempty" yaml:"statusAfter,omitempty"`
}

// ActionLogDAO lists action logs, newest first. The order is fixed by the
// endpoint, so there are no sort fields.
type ActionLogDAO struct {
	Resource
}

// SortFields returns nil, action logs are always newest first.
func (*ActionLogDAO) SortFields() []string {
	return nil
}

// Fetcher returns a page loader for the query.
func (d *ActionLogDAO) Fetcher(q Query) vlist.Fetcher[Object] {
	params := ParseActionFilter(q.Filter)
	for k, vv := range q.Extra {
		params[k] = append([]string(nil), vv...)
	}
	params.Set(client.IncludeStatsParam, "true")
	return searchFetcher(d.getFactory().Client(), ActionLogsPath, params, actionLogObject)
}

// ParseActionFilter turns "component=api status=failed terminate" into
// endpoint params. Bare words select the action type.
func ParseActionFilter(filter string) url.Values {
	params := make(url.Values)
	for _, tok := range strings.Fields(filter) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			params.Set("action_type", tok)
			continue
		}
		for _, key := range ActionFilterKeys {
			if strings.EqualFold(k, key) && v != "" {
				params.Set(key, v)
			}
		}
	}

	return params
}

func actionLogObject(a *ActionLog) Object {
	created := a.CreatedAt
	return &BaseObject{
		ID:        a.ID,
		Name:      a.ActionType,
		CreatedAt: &created,
		Raw:       a,
	}
}
