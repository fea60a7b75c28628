package drag

import (
	"encoding/json"
	"fmt"

	"staffmap/pkg/domain"
)

// PayloadKind tags what a palette drag carries.
type PayloadKind string

// Supported payload kinds.
const (
	// PayloadStaff drops a staff member onto the map, producing a marker.
	PayloadStaff PayloadKind = "staff"
	// PayloadTasks drops a role's task bundle onto a staff member.
	PayloadTasks PayloadKind = "tasks"
)

// Payload is the serialized content of a palette drag. It travels through the
// surface's data-transfer channel as JSON.
type Payload struct {
	Kind     PayloadKind       `json:"kind"`
	StaffID  string            `json:"staff_id,omitempty"`
	RoleName string            `json:"role_name,omitempty"`
	Tasks    []domain.RoleTask `json:"tasks,omitempty"`
}

// EncodePayload serializes a payload for the drag data channel.
func EncodePayload(p Payload) (string, error) {
	switch p.Kind {
	case PayloadStaff:
		if p.StaffID == "" {
			return "", fmt.Errorf("drag: staff payload without staff id")
		}
	case PayloadTasks:
		if len(p.Tasks) == 0 {
			return "", fmt.Errorf("drag: tasks payload without tasks")
		}
	default:
		return "", fmt.Errorf("drag: unknown payload kind %q", p.Kind)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodePayload parses a payload received from the drag data channel.
func DecodePayload(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("drag: decode payload: %w", err)
	}
	switch p.Kind {
	case PayloadStaff, PayloadTasks:
		return p, nil
	}
	return Payload{}, fmt.Errorf("drag: unknown payload kind %q", p.Kind)
}
