package globalobject

import "sync"

// Constructor initializes one statically-declared object. It may register
// destructors through rt.AtExit.
type Constructor func(rt *Runtime)

// Entry is one slot of the constructor table.
type Entry struct {
	Name string
	Fn   Constructor
}

var (
	tableMu sync.Mutex
	table   []Entry
)

// Declare appends a constructor to the process-wide table. It is meant to be
// called from package init functions, so table order follows package
// initialization order.
func Declare(name string, fn Constructor) {
	if fn == nil {
		panic("globalobject: nil constructor for " + name)
	}
	tableMu.Lock()
	defer tableMu.Unlock()
	table = append(table, Entry{Name: name, Fn: fn})
}

// Declared returns a snapshot of the constructor table.
func Declared() []Entry {
	tableMu.Lock()
	defer tableMu.Unlock()
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}
