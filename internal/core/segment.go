package core

// Segment capacities: the tracked window spans at most WindowCapacity
// distinct months, partitioned into the chronologically older and latest
// ranges.
const (
	OlderCapacity  = 7
	LatestCapacity = 6
	WindowCapacity = OlderCapacity + LatestCapacity
)

// Segment identifies one of the two month ranges partitioning the window.
type Segment string

const (
	SegmentOlder  Segment = "older"
	SegmentLatest Segment = "latest"
)

func (s Segment) IsValid() bool {
	return s == SegmentOlder || s == SegmentLatest
}

// Capacity returns the maximum number of distinct months the segment may
// hold.
func (s Segment) Capacity() int {
	if s == SegmentOlder {
		return OlderCapacity
	}
	return LatestCapacity
}
