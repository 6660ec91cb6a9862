//go:build !linux

package host

func debuggerAttached() bool { return false }
