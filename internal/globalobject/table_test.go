package globalobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeclareAppendsInOrder(t *testing.T) {
	before := len(Declared())
	Declare("test.first", func(*Runtime) {})
	Declare("test.second", func(*Runtime) {})

	got := Declared()
	if assert.Len(t, got, before+2) {
		assert.Equal(t, "test.first", got[before].Name)
		assert.Equal(t, "test.second", got[before+1].Name)
	}

	got[before].Name = "mutated"
	assert.Equal(t, "test.first", Declared()[before].Name, "Declared returns a copy")
}

func TestDeclareNilPanics(t *testing.T) {
	assert.Panics(t, func() { Declare("nil", nil) })
}
