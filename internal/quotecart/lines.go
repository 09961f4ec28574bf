package quotecart

// normalizeMinQty treats missing or non-positive minimums as 1.
func normalizeMinQty(minQty int) int {
	if minQty < 1 {
		return 1
	}
	return minQty
}

// resolveOption picks the option a selection applies to: the exact label when
// it exists, else the first available option, else the first option.
func resolveOption(options []Option, label string) (Option, bool) {
	if len(options) == 0 {
		return Option{}, false
	}
	if label != "" {
		for _, opt := range options {
			if opt.Label == label {
				return opt, true
			}
		}
	}
	for _, opt := range options {
		if opt.Available {
			return opt, true
		}
	}
	return options[0], true
}

// selectionQuantity is the quantity one add contributes. An override of zero
// means "not given"; either way the result never drops below the minimum.
func selectionQuantity(override, minQty int) int {
	minQty = normalizeMinQty(minQty)
	requested := override
	if requested == 0 {
		requested = minQty
	}
	return clampQuantity(requested, minQty)
}

func clampQuantity(requested, minQty int) int {
	minQty = normalizeMinQty(minQty)
	if requested < minQty {
		return minQty
	}
	return requested
}
