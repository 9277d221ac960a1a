package cmd

import (
	"image"
	"testing"

	"github.com/achilleasa/lightfield/types"
)

func TestParseScissor(t *testing.T) {
	type spec struct {
		in     string
		exp    image.Rectangle
		expErr bool
	}

	specs := []spec{
		{"", image.Rectangle{}, false},
		{"1,2,3,4", image.Rect(1, 2, 3, 4), false},
		{" 0, 0 ,10,10", image.Rect(0, 0, 10, 10), false},
		{"1,2,3", image.Rectangle{}, true},
		{"a,b,c,d", image.Rectangle{}, true},
	}

	for index, s := range specs {
		rect, err := parseScissor(s.in)
		if s.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", index)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if rect != s.exp {
			t.Fatalf("[spec %d] expected %v; got %v", index, s.exp, rect)
		}
	}
}

func TestBlockScheduler(t *testing.T) {
	for _, name := range []string{"naive", "perfect"} {
		if _, err := blockScheduler(name); err != nil {
			t.Fatalf("unexpected error for scheduler %q: %v", name, err)
		}
	}
	if _, err := blockScheduler("fastest"); err == nil {
		t.Fatal("expected an error for an unknown scheduler")
	}
}

func TestParseColor(t *testing.T) {
	type spec struct {
		in     string
		exp    types.Vec3
		expErr bool
	}

	specs := []spec{
		{"", types.Vec3{}, false},
		{"1,0,1", types.XYZ(1, 0, 1), false},
		{" 0.5, 0.25 ,1", types.XYZ(0.5, 0.25, 1), false},
		{"1,0", types.Vec3{}, true},
		{"r,g,b", types.Vec3{}, true},
	}

	for index, s := range specs {
		c, err := parseColor(s.in)
		if s.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", index)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if c != s.exp {
			t.Fatalf("[spec %d] expected %v; got %v", index, s.exp, c)
		}
	}
}
