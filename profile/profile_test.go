package profile

import (
	"slices"
	"testing"
)

func TestConfig_With(t *testing.T) {
	var c Config

	got := c.With(WithMode("cpu"), WithPath("/tmp/p"), WithQuiet(true))

	want := Config{Mode: "cpu", Path: "/tmp/p", Quiet: true}
	if got != want {
		t.Errorf("With() = %+v, want %+v", got, want)
	}

	if c != (Config{}) {
		t.Errorf("With() modified its receiver: %+v", c)
	}
}

func TestConfig_StartEmptyMode(t *testing.T) {
	p := Config{}.Start()
	if _, ok := p.(ignore); !ok {
		t.Errorf("Start() with empty mode = %T, want ignore", p)
	}

	p.Stop()
}

func TestModes_Sorted(t *testing.T) {
	modes := Modes()
	if !slices.IsSorted(modes) {
		t.Errorf("Modes() not sorted: %v", modes)
	}
}
