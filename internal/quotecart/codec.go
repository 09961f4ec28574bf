package quotecart

import (
	"encoding/json"
	"fmt"
	"strings"
)

func encodeLines(lines []Line) (string, error) {
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(b), nil
}

// decodeLines parses a persisted cart and repairs what it can: lines without
// an id or slug are dropped, repeated ids and (slug, option) pairs keep the
// first occurrence, and minimum/quantity are clamped. The second return value
// counts discarded entries.
func decodeLines(raw string) ([]Line, int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, 0, nil
	}
	var decoded []Line
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, 0, fmt.Errorf("decode cart: %w", err)
	}

	out := make([]Line, 0, len(decoded))
	ids := make(map[string]struct{}, len(decoded))
	pairs := make(map[string]struct{}, len(decoded))
	dropped := 0
	for _, line := range decoded {
		if line.ID == "" || line.Slug == "" {
			dropped++
			continue
		}
		pair := pairKey(line.Slug, line.Option)
		_, dupID := ids[line.ID]
		_, dupPair := pairs[pair]
		if dupID || dupPair {
			dropped++
			continue
		}
		ids[line.ID] = struct{}{}
		pairs[pair] = struct{}{}

		line.MinQty = normalizeMinQty(line.MinQty)
		line.Quantity = clampQuantity(line.Quantity, line.MinQty)
		out = append(out, line)
	}
	return out, dropped, nil
}

func pairKey(slug, option string) string {
	return slug + "\x00" + option
}
