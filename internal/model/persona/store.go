package persona

// Store exposes persona retrieval for HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Override applies fn to a copy of every persona, used to layer
// deployment settings (logo path, generation limits) over the built-in seeds.
func Override(items []Persona, fn func(*Persona)) []Persona {
	out := make([]Persona, len(items))
	for i := range items {
		out[i] = items[i]
		fn(&out[i])
	}
	return out
}

// ApplyLogo sets path as the logo of every sidebar-layout persona.
func ApplyLogo(items []Persona, path string) []Persona {
	if path == "" {
		return items
	}
	return Override(items, func(p *Persona) {
		if p.Layout == LayoutSidebar {
			p.LogoPath = path
		}
	})
}
