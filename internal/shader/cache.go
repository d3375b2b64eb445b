package shader

// uniformCache maps uniform names to locations for one linked program.
// Misses are cached too (as -1) so a missing uniform costs one driver call.
type uniformCache struct {
	locations map[string]int32
}

func newUniformCache() *uniformCache {
	return &uniformCache{locations: make(map[string]int32)}
}

// lookup returns the cached location and whether name had been resolved
// before. resolve is only called on a miss.
func (uc *uniformCache) lookup(name string, resolve func(string) int32) (loc int32, cached bool) {
	if loc, ok := uc.locations[name]; ok {
		return loc, true
	}
	loc = resolve(name)
	uc.locations[name] = loc
	return loc, false
}

func (uc *uniformCache) clear() {
	clear(uc.locations)
}
