package runtime

import "fmt"

// TransportError wraps a websocket dial/read/write failure. Terminal for
// the current session; the caller decides whether to restart the process
//.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means an inbound frame failed to decode as the known
// union. The reader logs the offending payload and terminates the
// session — a conservative choice, since an unknown frame may indicate a
// version skew that later frames assume.
type ProtocolError struct {
	Payload string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: undecodable frame %q: %v", e.Payload, e.Err)
}
func (e *ProtocolError) Unwrap() error { return e.Err }

// DispatchError means the provision lookup failed or the template-id was
// missing from the registry. Per-assignment; never terminal.
type DispatchError struct {
	Assignation int64
	Reason      string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: assignation %d: %s", e.Assignation, e.Reason)
}

// ExecutorError means the registered user function returned an error.
// Per-assignment; emitted as a CRITICAL event with Reason carrying the
// stringified cause.
type ExecutorError struct {
	Assignation int64
	Reason      string
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor: assignation %d: %s", e.Assignation, e.Reason)
}
