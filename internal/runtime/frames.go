package runtime

import "encoding/json"

// Frame type discriminators.
const (
	typeHeartbeat        = "HEARTBEAT"
	typeInit             = "INIT"
	typeAssign           = "ASSIGN"
	typeProvide          = "PROVIDE"
	typeUnprovide        = "UNPROVIDE"
	typeError            = "ERROR"
	typeInitial          = "INITIAL"
	typeAssignationEvent = "ASSIGNATION_EVENT"
)

// EventKind enumerates the closed set of ASSIGNATION_EVENT kinds.
type EventKind string

const (
	EventYield    EventKind = "YIELD"
	EventDone     EventKind = "DONE"
	EventCritical EventKind = "CRITICAL"
	EventLog      EventKind = "LOG"
)

// inboundEnvelope is the superset shape every inbound frame decodes
// through before being dispatched on its Type discriminator.
type inboundEnvelope struct {
	Type string `json:"type"`

	// INIT
	InstanceID string            `json:"instance_id,omitempty"`
	Agent      json.RawMessage   `json:"agent,omitempty"`
	Registry   json.RawMessage   `json:"registry,omitempty"`
	Provisions []int64           `json:"provisions,omitempty"`
	Inquiries  []json.RawMessage `json:"inquiries,omitempty"`

	// ASSIGN
	Assignation int64                      `json:"assignation,omitempty"`
	Provision   int64                      `json:"provision,omitempty"`
	Args        map[string]json.RawMessage `json:"args,omitempty"`

	// ERROR
	Code int64 `json:"code,omitempty"`
}

// outboundFrame is marshalled directly; only the type-specific fields of
// the section matching Type are populated.
type outboundFrame struct {
	Type string `json:"type"`

	// INITIAL
	InstanceID string `json:"instance_id,omitempty"`
	Token      string `json:"token,omitempty"`

	// ASSIGNATION_EVENT
	Assignation int64           `json:"assignation,omitempty"`
	Kind        EventKind       `json:"kind,omitempty"`
	Message     string          `json:"message,omitempty"`
	Returns     json.RawMessage `json:"returns,omitempty"`
}

func heartbeatFrame() outboundFrame {
	return outboundFrame{Type: typeHeartbeat}
}

func initialFrame(instanceID, token string) outboundFrame {
	return outboundFrame{Type: typeInitial, InstanceID: instanceID, Token: token}
}

func yieldFrame(assignation int64, returns json.RawMessage) outboundFrame {
	return outboundFrame{Type: typeAssignationEvent, Assignation: assignation, Kind: EventYield, Returns: returns}
}

func doneFrame(assignation int64) outboundFrame {
	return outboundFrame{Type: typeAssignationEvent, Assignation: assignation, Kind: EventDone}
}

func criticalFrame(assignation int64, message string) outboundFrame {
	return outboundFrame{Type: typeAssignationEvent, Assignation: assignation, Kind: EventCritical, Message: message}
}
