package engine

// compact rewrites all live data into a compact, contiguous series of new
// segments and deletes the segments that existed before compaction began,
// reclaiming space occupied by superseded writes and tombstones.
//
// The rewrite goes through a scratch store whose set path bypasses the
// mutation counter entirely, so compaction can never recursively trigger
// itself.
func (s *Store) compact() error {
	if err := s.active.Flush(); err != nil {
		return err
	}

	// Snapshot every segment that exists right now, including the current
	// active one: all of it is superseded once the new active segment is
	// installed below.
	snapshot := make([]*Segment, 0, len(s.segments)+1)
	snapshot = append(snapshot, s.segments...)
	snapshot = append(snapshot, s.active)

	scratch := newScratchStore(s.dir, s.cfg)
	for _, key := range s.memtable.Keys() {
		value, found, err := s.Get(key)
		if err != nil {
			scratch.abort()
			return err
		}
		if !found {
			continue
		}
		if err := scratch.set(key, value); err != nil {
			scratch.abort()
			return err
		}
	}
	if err := scratch.seal(); err != nil {
		scratch.abort()
		return err
	}

	newActive, err := newSegment(s.dir)
	if err != nil {
		scratch.abort()
		return err
	}

	// Install the new active segment and adopt the scratch store's
	// segments and memtable before touching any pre-compaction file, so a
	// crash here never leaves the store without a readable copy of every
	// live key (spec.md §4.4.5 correctness requirement).
	s.segments = scratch.segments
	s.active = newActive
	s.memtable = scratch.memtable
	s.mutationCount = 0

	for _, seg := range snapshot {
		if err := seg.removeFiles(); err != nil {
			return err
		}
	}
	return nil
}

// scratchStore accumulates compacted writes into a fresh series of segments
// rooted in the same directory, rotating whenever the active scratch
// segment exceeds the configured size threshold. Its segment names are
// always later than any pre-compaction segment because newSegment's naming
// is strictly monotonic process-wide (spec.md §9 Open Question).
type scratchStore struct {
	dir      string
	cfg      Config
	segments []*Segment
	active   *Segment
	memtable *Memtable
}

func newScratchStore(dir string, cfg Config) *scratchStore {
	return &scratchStore{dir: dir, cfg: cfg, memtable: newMemtable()}
}

// set writes key/value directly to the scratch store's active segment,
// rotating it first if needed. It never touches a mutation counter.
func (s *scratchStore) set(key, value string) error {
	if s.active == nil {
		active, err := newSegment(s.dir)
		if err != nil {
			return err
		}
		s.active = active
	}
	ptr, err := s.active.Set(key, value)
	if err != nil {
		return err
	}
	s.memtable.Insert(key, ptr)
	if s.active.Size() > s.cfg.SegmentSizeThreshold {
		if err := s.active.Flush(); err != nil {
			return err
		}
		s.segments = append(s.segments, s.active)
		s.active = nil
	}
	return nil
}

// seal finalizes the scratch store's in-progress active segment as a sealed
// member of its segment list: the real store installs its own brand-new
// active segment afterward, so the scratch build-up never keeps writing.
func (s *scratchStore) seal() error {
	if s.active == nil {
		return nil
	}
	if err := s.active.Flush(); err != nil {
		return err
	}
	s.segments = append(s.segments, s.active)
	s.active = nil
	return nil
}

// abort closes every segment the scratch store created and deletes their
// files, so no orphaned scratch segment is loaded by a later Open.
// Compaction failures abort compaction and leave the pre-compaction state
// intact (spec.md §7).
func (s *scratchStore) abort() {
	for _, seg := range s.segments {
		seg.removeFiles()
	}
	if s.active != nil {
		s.active.removeFiles()
	}
}
