package store

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/memory-album/internal/model"
)

// encodeCollection serializes memories; dates become RFC 3339 strings.
func encodeCollection(memories []model.Memory) ([]byte, error) {
	if memories == nil {
		memories = []model.Memory{}
	}
	return json.Marshal(memories)
}

// decodeCollection parses a collection blob. Records that break an
// invariant or repeat an earlier id are returned in skipped, not loaded.
func decodeCollection(data []byte) (memories []model.Memory, skipped []error, err error) {
	var raw []model.Memory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse collection: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	memories = make([]model.Memory, 0, len(raw))
	for i, m := range raw {
		if m.ID == "" {
			skipped = append(skipped, fmt.Errorf("record %d: missing id", i))
			continue
		}
		if seen[m.ID] {
			skipped = append(skipped, fmt.Errorf("record %s: duplicate id", m.ID))
			continue
		}
		if m.Frame == "" {
			m.Frame = model.DefaultFrame
		}
		if err := m.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("record %s: %w", m.ID, err))
			continue
		}
		seen[m.ID] = true
		memories = append(memories, m)
	}
	return memories, skipped, nil
}

func encodeBindings(bindings map[string]string) ([]byte, error) {
	if bindings == nil {
		bindings = map[string]string{}
	}
	return json.Marshal(bindings)
}

func decodeBindings(data []byte) (map[string]string, error) {
	bindings := map[string]string{}
	if err := json.Unmarshal(data, &bindings); err != nil {
		return nil, fmt.Errorf("parse notification ids: %w", err)
	}
	if bindings == nil {
		bindings = map[string]string{}
	}
	for id, h := range bindings {
		if h == "" {
			delete(bindings, id)
		}
	}
	return bindings, nil
}
