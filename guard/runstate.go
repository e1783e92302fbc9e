package guard

import (
	"encoding/json"
	"fmt"
)

// runStateV1 is the snapshot written to the checkpoint log when an
// execution suspends. The version field guards against replaying snapshots
// written by an incompatible build.
type runStateV1 struct {
	Version int `json:"v"`

	ExecutionID string `json:"execution_id"`
	ThreadID    string `json:"thread_id"`
	Step        int    `json:"step"`

	PendingAction Action         `json:"pending_action"`
	Vars          map[string]any `json:"vars,omitempty"`
}

func marshalRunState(st runStateV1) ([]byte, error) {
	st.Version = 1
	return json.Marshal(st)
}

func unmarshalRunState(b []byte) (runStateV1, error) {
	var st runStateV1
	if err := json.Unmarshal(b, &st); err != nil {
		return runStateV1{}, err
	}
	if st.Version != 0 && st.Version != 1 {
		return runStateV1{}, fmt.Errorf("unsupported run state version: %d", st.Version)
	}
	return st, nil
}
