package navstream

import "github.com/javi11/dvdnavstream/internal/nav"

// lease tracks the engine buffer currently on loan. At most one buffer is
// held, and release hands it back exactly once.
type lease struct {
	engine nav.Engine
	data   []byte
	held   bool
}

// acquire records data as borrowed. Callers release any previous loan first.
func (l *lease) acquire(data []byte) {
	l.data = data
	l.held = true
}

// release returns the held buffer to the engine. It is a no-op when nothing
// is held, so it is safe on every exit path.
func (l *lease) release() error {
	if !l.held {
		return nil
	}
	data := l.data
	l.data = nil
	l.held = false
	return l.engine.ReleaseBlock(data)
}

func (l *lease) active() bool {
	return l.held
}
