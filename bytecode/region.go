package bytecode

import "github.com/sapphire-lang/sapphire/op"

// ExceptionRegion describes a contiguous protected instruction range.
//
// For a rescue region, Entry is the start of the handler dispatch chain and
// Handlers lists the clauses in the order they are tested. For an ensure
// region, Handlers is empty and Ensure equals Entry.
type ExceptionRegion struct {
	Kind     op.UnwindKind
	Start    int       // First protected instruction
	End      int       // Offset of the POP_UNWIND closing the region
	Entry    int       // SETUP_UNWIND target
	Handlers []Handler // Rescue clauses in literal order
	Ensure   int       // Ensure handler entry (-1 if none)
}

// Handler is one rescue clause: the classes it matches and the offset of
// its body.
type Handler struct {
	Classes []string
	Entry   int
}

// Contains reports whether the offset lies inside the protected range.
func (r ExceptionRegion) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// HasEnsure reports whether the region has an ensure handler.
func (r ExceptionRegion) HasEnsure() bool {
	return r.Ensure >= 0
}

func (r ExceptionRegion) clone() ExceptionRegion {
	out := r
	if r.Handlers != nil {
		out.Handlers = make([]Handler, len(r.Handlers))
		for i, h := range r.Handlers {
			out.Handlers[i] = Handler{Classes: copyStrings(h.Classes), Entry: h.Entry}
		}
	}
	return out
}
