package planner

// CachedPairs returns the number of cached overlap results.
// This is exported for testing purposes only.
func (x *Index) CachedPairs() int {
	x.snapMu.Lock()
	defer x.snapMu.Unlock()
	return len(x.overlap)
}

// Shapes returns the number of distinct shapes in use.
// This is exported for testing purposes only.
func (x *Index) Shapes() int {
	x.snapMu.Lock()
	defer x.snapMu.Unlock()
	return len(x.shapes)
}
