package engine

import "fmt"

// TagKind classifies the payload carried by roots and attractors.
type TagKind uint8

const (
	// Untagged is the payload of ordinary attractors and roots.
	Untagged TagKind = iota
	// Source marks a root of the graph scenario.
	Source
	// Target marks an attractor clustered around a graph target.
	Target
)

func (k TagKind) String() string {
	switch k {
	case Untagged:
		return "none"
	case Source:
		return "source"
	case Target:
		return "target"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k TagKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *TagKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*k = Untagged
	case "source":
		*k = Source
	case "target":
		*k = Target
	default:
		return fmt.Errorf("unknown tag kind %q", b)
	}
	return nil
}

// Tag is the information exchanged between attractors and nodes.
type Tag struct {
	Kind TagKind `json:"kind"`
	ID   int     `json:"id"`
}

func (t Tag) String() string {
	if t.Kind == Untagged {
		return "none"
	}
	return fmt.Sprintf("%s_%d", t.Kind, t.ID)
}
