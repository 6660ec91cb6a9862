//go:build !linux

package vm

func detectFeature() string { return "" }
