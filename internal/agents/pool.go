package agents

import "reflect"

// Pool recycles actions per concrete type. It is owned by the composition
// root and is not safe for concurrent use.
type Pool struct {
	free    map[reflect.Type][]Action
	created int
	reused  int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{free: make(map[reflect.Type][]Action)}
}

// PoolStats counts allocations versus reuses.
type PoolStats struct {
	Created int `json:"created"`
	Reused  int `json:"reused"`
	Free    int `json:"free"`
}

// Get returns a ready action of type T, reusing a released one when
// available. A nil pool always allocates.
func Get[T any, PT interface {
	*T
	Action
}](p *Pool) PT {
	var act PT
	if p != nil {
		typ := reflect.TypeFor[T]()
		if free := p.free[typ]; len(free) > 0 {
			act = free[len(free)-1].(PT)
			free[len(free)-1] = nil
			p.free[typ] = free[:len(free)-1]
			p.reused++
		} else {
			p.created++
		}
	}
	if act == nil {
		act = PT(new(T))
	}
	act.State().prepare(p)
	return act
}

// Retain adds an owner to a. Each owner releases it with Put.
func Retain(a Action) {
	if a == nil {
		return
	}
	a.State().refs++
}

// Put releases a. The action is wiped and becomes reusable once its last
// owner releases it. Releasing an already pooled action is a no-op.
func (p *Pool) Put(a Action) {
	if a == nil {
		return
	}
	s := a.State()
	if s.pooled {
		return
	}
	if s.refs > 1 {
		s.refs--
		return
	}
	a.Reset()
	// Reset zeroes the concrete struct, ActionState included.
	s = a.State()
	s.pooled = true
	if p == nil {
		return
	}
	typ := reflect.TypeOf(a).Elem()
	p.free[typ] = append(p.free[typ], a)
}

// Stats reports pool usage.
func (p *Pool) Stats() PoolStats {
	if p == nil {
		return PoolStats{}
	}
	st := PoolStats{Created: p.created, Reused: p.reused}
	for _, f := range p.free {
		st.Free += len(f)
	}
	return st
}
