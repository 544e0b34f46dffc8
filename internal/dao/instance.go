package dao

import (
	"time"

	"github.com/inventiv/ivs/internal/vlist"
)

func init() {
	RegisterAccessor(InstanceRID, func() Accessor { return new(InstanceDAO) })
}

// InstancesPath is the instance search endpoint.
const InstancesPath = "/instances/search"

// Instance is a GPU instance as served by the control plane.
type Instance struct {
	ID              string     `json:"id" yaml:"id"`
	ProviderName    string     `json:"provider_name" yaml:"provider"`
	Region          string     `json:"region" yaml:"region"`
	Zone            string     `json:"zone" yaml:"zone"`
	InstanceType    string     `json:"instance_type" yaml:"instanceType"`
	Status          string     `json:"status" yaml:"status"`
	IPAddress       *string    `json:"ip_address,omitempty" yaml:"ipAddress,omitempty"`
	GPUCount        *int       `json:"gpu_count,omitempty" yaml:"gpuCount,omitempty"`
	GPUVRAM         *int       `json:"gpu_vram,omitempty" yaml:"gpuVram,omitempty"`
	CostPerHour     *float64   `json:"cost_per_hour,omitempty" yaml:"costPerHour,omitempty"`
	TotalCost       *float64   `json:"total_cost,omitempty" yaml:"totalCost,omitempty"`
	ModelName       *string    `json:"model_name,omitempty" yaml:"model,omitempty"`
	WorkerStatus    *string    `json:"worker_status,omitempty" yaml:"workerStatus,omitempty"`
	ProgressPercent *int       `json:"progress_percent,omitempty" yaml:"progress,omitempty"`
	ErrorCode       *string    `json:"error_code,omitempty" yaml:"errorCode,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty" yaml:"errorMessage,omitempty"`
	IsArchived      bool       `json:"is_archived" yaml:"archived"`
	CreatedAt       time.Time  `json:"created_at" yaml:"createdAt"`
	TerminatedAt    *time.Time `json:"terminated_at,omitempty" yaml:"terminatedAt,omitempty"`
}

// InstanceDAO lists control plane instances.
type InstanceDAO struct {
	Resource
}

// SortFields returns the server side sort keys for instances.
func (*InstanceDAO) SortFields() []string {
	return []string{"created_at", "status", "provider", "region", "zone", "type", "cost_per_hour", "total_cost"}
}

// Fetcher returns a page loader for the query.
func (d *InstanceDAO) Fetcher(q Query) vlist.Fetcher[Object] {
	return searchFetcher(d.getFactory().Client(), InstancesPath, q.Params("q"), instanceObject)
}

func instanceObject(i *Instance) Object {
	name := i.ID
	if i.ModelName != nil && *i.ModelName != "" {
		name = *i.ModelName
	}
	created := i.CreatedAt
	return &BaseObject{
		ID:        i.ID,
		Name:      name,
		CreatedAt: &created,
		Raw:       i,
	}
}
