package semantic

import "testing"

func TestPointID_DeterministicPerURL(t *testing.T) {
	a := PointID("https://example.com/vehicles/kona")
	b := PointID("https://example.com/vehicles/kona")
	c := PointID("https://example.com/vehicles/ibiza")

	if a != b {
		t.Error("same URL produced different point IDs")
	}
	if a == c {
		t.Error("different URLs collided")
	}
	if len(a) != 36 {
		t.Errorf("point ID %q is not a UUID", a)
	}
}
