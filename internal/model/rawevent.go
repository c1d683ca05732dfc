package model

// InvolvedObject identifies the Kubernetes-style object a RawEvent concerns.
type InvolvedObject struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// RawEvent is a raw cluster event fed into the Threshold Engine. It exists
// only transiently inside that stage and is never retained past a tick.
type RawEvent struct {
	TimestampMs    int64             `json:"timestamp_ms"`
	Reason         string            `json:"reason"`
	Type           string            `json:"type"`
	Message        string            `json:"message"`
	InvolvedObject InvolvedObject    `json:"involved_object"`
	Namespace      string            `json:"namespace"`
	Labels         map[string]string `json:"labels,omitempty"`
}

// Field returns the value of a top-level or involvedObject.* field by name,
// used by the rule match-spec evaluator. Unknown fields return "", false.
func (e *RawEvent) Field(name string) (string, bool) {
	switch name {
	case "reason":
		return e.Reason, true
	case "type":
		return e.Type, true
	case "message":
		return e.Message, true
	case "namespace":
		return e.Namespace, true
	case "involvedObject.kind":
		return e.InvolvedObject.Kind, true
	case "involvedObject.name":
		return e.InvolvedObject.Name, true
	default:
		if v, ok := e.Labels[name]; ok {
			return v, true
		}
		return "", false
	}
}
