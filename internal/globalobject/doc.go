// Package globalobject runs constructors of statically-declared objects once
// at load and their registered destructors, last-in-first-out, at unload.
//
// Packages declare constructors from their init functions:
//
//	func init() {
//		globalobject.Declare("perf.collector", func(rt *globalobject.Runtime) {
//			collector = newCollector()
//			_ = rt.AtExit(func() { collector = nil })
//		})
//	}
//
// The driver builds a Runtime from Declared and calls RunConstructors before
// the first subsystem is initialized and RunDestructors after the last one
// is terminated. AtExit is only valid while RunConstructors is running.
//
// Destructor entries are charged to an Allocator under the 'GObj' pool tag.
// When the allocator refuses an entry, AtExit returns ErrPoolExhausted and the
// destructor is not registered; the constructor is not expected to fail.
package globalobject
