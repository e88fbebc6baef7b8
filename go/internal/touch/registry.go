package touch

// entry keeps the palette color a pointer was issued so it can be returned
// even after grouping repainted the pointer
type entry struct {
	pointer Pointer
	issued  string
}

// Registry tracks active pointers in insertion order
type Registry struct {
	palette  *Palette
	order    []PointerID
	pointers map[PointerID]*entry
}

// NewRegistry creates an empty registry drawing colors from palette
func NewRegistry(palette *Palette) *Registry {
	return &Registry{
		palette:  palette,
		pointers: make(map[PointerID]*entry),
	}
}

// Upsert moves a known pointer or registers a new one with a free color.
// Nothing is created when the palette is exhausted.
func (r *Registry) Upsert(id PointerID, pos Point) (bool, error) {
	if e, ok := r.pointers[id]; ok {
		e.pointer.Position = pos
		return false, nil
	}
	color, err := r.palette.Allocate()
	if err != nil {
		return false, err
	}
	r.pointers[id] = &entry{
		pointer: Pointer{ID: id, Position: pos, Color: color},
		issued:  color,
	}
	r.order = append(r.order, id)
	return true, nil
}

// Move updates the position of a known pointer
func (r *Registry) Move(id PointerID, pos Point) bool {
	e, ok := r.pointers[id]
	if !ok {
		return false
	}
	e.pointer.Position = pos
	return true
}

// Remove deletes a pointer and frees its color
func (r *Registry) Remove(id PointerID) bool {
	e, ok := r.pointers[id]
	if !ok {
		return false
	}
	r.palette.Release(e.issued)
	delete(r.pointers, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear drops every pointer and frees the whole palette
func (r *Registry) Clear() {
	clear(r.pointers)
	r.order = r.order[:0]
	r.palette.Reset()
}

// Snapshot copies the pointers in insertion order
func (r *Registry) Snapshot() []Pointer {
	out := make([]Pointer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.pointers[id].pointer)
	}
	return out
}

// Recolor paints a pointer without touching the palette
func (r *Registry) Recolor(id PointerID, color string) bool {
	e, ok := r.pointers[id]
	if !ok {
		return false
	}
	e.pointer.Color = color
	return true
}

// RetainOnly removes every pointer except id
func (r *Registry) RetainOnly(id PointerID) bool {
	if _, ok := r.pointers[id]; !ok {
		return false
	}
	for _, oid := range append([]PointerID(nil), r.order...) {
		if oid != id {
			r.Remove(oid)
		}
	}
	return true
}

func (r *Registry) Get(id PointerID) (Pointer, bool) {
	e, ok := r.pointers[id]
	if !ok {
		return Pointer{}, false
	}
	return e.pointer, true
}

func (r *Registry) Len() int { return len(r.order) }
