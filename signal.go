package arbor

// Signal is an ordered, cancellable event hook. Nodes declare one field
// per event they expose and anyone holding the node may connect:
//
//	type Door struct {
//		arbor.NodeBase
//		Opened arbor.Signal[string]
//	}
//
//	door.Opened.Connect(func(who string) { ... })
//	door.Opened.Emit("player")
//
// The zero Signal is ready to use. Connection handles come from the same
// generational allocator the node arena uses, so disconnecting during an
// emit is safe: the snapshot entry simply fails its liveness check.
type Signal[T any] struct {
	conns table[connection[T]]
}

type connection[T any] struct {
	fn   func(T)
	once bool
}

// Connect registers a callback that runs on every Emit until
// disconnected. Returns the connection handle.
func (s *Signal[T]) Connect(fn func(T)) RID {
	return s.conns.Insert(connection[T]{fn: fn})
}

// ConnectOnce registers a callback that runs on the next Emit only.
// Returns the connection handle.
func (s *Signal[T]) ConnectOnce(fn func(T)) RID {
	return s.conns.Insert(connection[T]{fn: fn, once: true})
}

// Emit invokes every connected callback with arg, in slot order (insertion
// order, except that a connection reusing a disconnected slot inherits
// that slot's position), then removes the one-shot connections that ran.
// Callbacks connected during an Emit do not run until the next one.
func (s *Signal[T]) Emit(arg T) {
	snapshot := s.conns.RIDs()
	var fired []RID
	for _, rid := range snapshot {
		conn, ok := s.conns.Get(rid)
		if !ok {
			continue
		}
		conn.fn(arg)
		if conn.once {
			fired = append(fired, rid)
		}
	}
	for _, rid := range fired {
		s.conns.Remove(rid)
	}
}

// Disconnect removes one connection. Returns whether it existed.
func (s *Signal[T]) Disconnect(rid RID) bool {
	_, ok := s.conns.Remove(rid)
	return ok
}

// Len returns the number of live connections.
func (s *Signal[T]) Len() int {
	return s.conns.Len()
}

// Clear disconnects everything.
func (s *Signal[T]) Clear() {
	for _, rid := range s.conns.RIDs() {
		s.conns.Remove(rid)
	}
}
