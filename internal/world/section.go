package world

// Section is a 16³ block grid. It has no synchronization of its own; the
// owning Chunk's state machine orders access.
type Section struct {
	blocks [SectionSize * SectionSize * SectionSize]BlockID
	empty  bool
}

func NewSection() *Section {
	return &Section{empty: true}
}

func sectionIndex(x, y, z int) int {
	return x + SectionSize*(z+SectionSize*y)
}

// Get returns the block at local coordinates, which must be in 0..15.
func (s *Section) Get(x, y, z int) BlockID {
	return s.blocks[sectionIndex(x, y, z)]
}

// Set stores a block. Empty stays false once any non-air block was written.
func (s *Section) Set(x, y, z int, id BlockID) {
	s.blocks[sectionIndex(x, y, z)] = id
	if id != BlockAir {
		s.empty = false
	}
}

// Empty reports whether no non-air block has ever been written.
func (s *Section) Empty() bool {
	return s.empty
}
