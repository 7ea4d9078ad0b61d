package inspector

// Statistics is a rolling view over the current history window: counts
// per detected protocol, counts of each raised security flag, and
// aggregate warning/packet totals.
type Statistics struct {
	TotalPackets  int
	Protocols     map[string]int
	Security      map[string]int
	TotalWarnings int
}

func newStatistics() Statistics {
	return Statistics{
		Protocols: map[string]int{},
		Security:  map[string]int{},
	}
}

func (s *Statistics) record(r *Result) {
	s.TotalPackets++
	s.Protocols[r.DetectedProtocol]++
	for flag, set := range r.SecurityFlags {
		if set {
			s.Security[flag]++
		}
	}
	s.TotalWarnings += len(r.Warnings)
}
