package chat

// idSet is a set of user ids that remembers insertion order.
type idSet struct {
	order []int
	index map[int]struct{}
}

func newIDSet(ids ...int) idSet {
	s := idSet{index: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *idSet) has(id int) bool {
	_, ok := s.index[id]
	return ok
}

// add reports whether id was newly inserted.
func (s *idSet) add(id int) bool {
	if s.has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// remove reports whether id was present.
func (s *idSet) remove(id int) bool {
	if !s.has(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *idSet) len() int { return len(s.order) }

// list returns a copy of the ids in insertion order.
func (s *idSet) list() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}
