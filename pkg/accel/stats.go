package accel

// Stats contains statistics about the tree's leaf occupancy
type Stats struct {
	Depth          int     // Configured depth
	Leaves         int     // Number of leaves (4^Depth)
	NonEmptyLeaves int     // Leaves holding at least one candidate
	Memberships    int     // Sum of candidate list lengths
	MaxListLen     int     // Longest candidate list
	AvgListLen     float64 // Memberships / Leaves
}

// Stats walks every leaf and collects occupancy statistics
func (t *Tree) Stats() Stats {
	stats := Stats{Depth: t.depth}

	for _, list := range t.Leaves() {
		stats.Leaves++
		n := list.Len()
		if n > 0 {
			stats.NonEmptyLeaves++
		}
		stats.Memberships += n
		stats.MaxListLen = max(stats.MaxListLen, n)
	}

	if stats.Leaves > 0 {
		stats.AvgListLen = float64(stats.Memberships) / float64(stats.Leaves)
	}

	return stats
}

// Duplication returns the average number of leaves each sphere landed in
func (s Stats) Duplication(spheres int) float64 {
	if spheres == 0 {
		return 0
	}
	return float64(s.Memberships) / float64(spheres)
}
