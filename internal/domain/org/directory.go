package org

// Directory is an in-memory arena of employees indexed by id, loaded in a
// single query. The supervisor graph is stored as plain id references, so a
// misconfigured cycle is representable; callers must bound their traversal.
type Directory struct {
	byID map[string]Employee
}

func NewDirectory(employees []Employee) *Directory {
	byID := make(map[string]Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}
	return &Directory{byID: byID}
}

func (d *Directory) Get(id string) (Employee, bool) {
	e, ok := d.byID[id]
	return e, ok
}

// SupervisorOf returns the supervisor's employee id, or "" when the
// employee has no supervisor or is unknown.
func (d *Directory) SupervisorOf(id string) string {
	e, ok := d.byID[id]
	if !ok {
		return ""
	}
	return e.SupervisorID
}

// GrandSupervisorOf returns the supervisor's supervisor. The lookup is two
// fixed dereferences, never a recursive walk, so supervisor cycles cannot
// loop. A self-supervising employee yields "".
func (d *Directory) GrandSupervisorOf(id string) string {
	sup := d.SupervisorOf(id)
	if sup == "" || sup == id {
		return ""
	}
	grand := d.SupervisorOf(sup)
	if grand == sup || grand == id {
		return ""
	}
	return grand
}

func (d *Directory) IDs() []string {
	ids := make([]string, 0, len(d.byID))
	for id := range d.byID {
		ids = append(ids, id)
	}
	return ids
}

func (d *Directory) Len() int {
	return len(d.byID)
}
