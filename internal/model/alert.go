package model

// Status is the alert lifecycle state reported by the originating monitor.
type Status string

const (
	StatusFiring   Status = "firing"
	StatusResolved Status = "resolved"
	StatusInfo     Status = "info"
)

// Severity is the alert's urgency tag. Unknown tokens map to SeverityLow by
// callers — see SeverityWeight.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityWeight returns the strict total order used throughout the pipeline:
// critical=4 > high=3 > medium=2 > low=1. Unknown tokens map to 1, matching
// the "unknowns map to 1" rule in the episode clustering spec.
func SeverityWeight(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 1
	}
}

// Alert is a single normalized alert record, read-only after ingress.
type Alert struct {
	ID          string            `json:"id"`
	TimestampMs int64             `json:"timestamp_ms"`
	Source      string            `json:"source"`
	VendorID    string            `json:"vendor_event_id"`
	Fingerprint string            `json:"fingerprint"`
	Status      Status            `json:"status"`
	Severity    Severity          `json:"severity"`
	Kind        string            `json:"kind"`
	EntityKey   string            `json:"entity_key,omitempty"`
	Service     string            `json:"service,omitempty"`
	Component   string            `json:"component,omitempty"`
	Resource    string            `json:"resource,omitempty"`
	Namespace   string            `json:"namespace,omitempty"`
	Pod         string            `json:"pod,omitempty"`
	Host        string            `json:"host,omitempty"`
	Region      string            `json:"region,omitempty"`
	Cluster     string            `json:"cluster,omitempty"`
	DeployKey   string            `json:"deploy_key,omitempty"`
	NetKey      string            `json:"net_key,omitempty"`
	K8sKey      string            `json:"k8s_key,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// ResolveEntityKey derives the entity-key per spec.md §3: the first
// non-empty of {entity_key, service, component, resource, "na"}. It does not
// mutate a — callers that need the derived key on the record itself should
// assign the result back explicitly.
func (a *Alert) ResolveEntityKey() string {
	switch {
	case a.EntityKey != "":
		return a.EntityKey
	case a.Service != "":
		return a.Service
	case a.Component != "":
		return a.Component
	case a.Resource != "":
		return a.Resource
	default:
		return "na"
	}
}

// DedupKey returns the "fingerprint | entity-key" key used by the
// deduplicator.
func (a *Alert) DedupKey() string {
	return a.Fingerprint + "|" + a.ResolveEntityKey()
}

// EpisodeKey returns the "entity-key | fingerprint" key used by the episode
// clusterer. Note the reversed field order relative to DedupKey — this
// matches spec.md §4.3 exactly and is intentional, not a typo.
func (a *Alert) EpisodeKey() string {
	return a.ResolveEntityKey() + "|" + a.Fingerprint
}
