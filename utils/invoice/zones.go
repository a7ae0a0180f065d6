package invoice

// Zone is a coarse vertical region of a document.
type Zone int

const (
	ZoneTop Zone = iota
	ZoneMiddle
	ZoneBottom
)

func (z Zone) String() string {
	switch z {
	case ZoneTop:
		return "top"
	case ZoneMiddle:
		return "middle"
	case ZoneBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Zones partitions a line list. Top, Middle and Bottom are contiguous and disjoint;
// MiddleStart and BottomStart are the line indexes where the later zones begin.
type Zones struct {
	Top         []string `json:"top"`
	Middle      []string `json:"middle"`
	Bottom      []string `json:"bottom"`
	MiddleStart int      `json:"middle_start"`
	BottomStart int      `json:"bottom_start"`
}

// SplitZones cuts lines at int(n*TopCut) and int(n*MiddleCut).
func SplitZones(lines []string, h Heuristics) Zones {
	n := len(lines)
	topEnd := clampIndex(int(float64(n)*h.TopCut), 0, n)
	middleEnd := clampIndex(int(float64(n)*h.MiddleCut), topEnd, n)

	return Zones{
		Top:         append([]string{}, lines[:topEnd]...),
		Middle:      append([]string{}, lines[topEnd:middleEnd]...),
		Bottom:      append([]string{}, lines[middleEnd:]...),
		MiddleStart: topEnd,
		BottomStart: middleEnd,
	}
}

// ZoneOf reports which zone a line index falls in.
func (z Zones) ZoneOf(lineIndex int) Zone {
	switch {
	case lineIndex < z.MiddleStart:
		return ZoneTop
	case lineIndex < z.BottomStart:
		return ZoneMiddle
	default:
		return ZoneBottom
	}
}

func clampIndex(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
