package lifecycle

import (
	"net/http"
	"reflect"
	"testing"
)

func TestHeaderSetSetAndGet(t *testing.T) {
	s := NewHeaderSet()

	s.Set("x-custom", "one")
	if got := s.Get("X-Custom"); got != "one" {
		t.Errorf("Get = %q, want %q", got, "one")
	}

	// Later writes for the same key overwrite earlier ones.
	s.Set("X-Custom", "two")
	if got := s.Get("x-custom"); got != "two" {
		t.Errorf("Get after overwrite = %q, want %q", got, "two")
	}
	if vv := s.Header()["X-Custom"]; len(vv) != 1 {
		t.Errorf("values = %v, want single value", vv)
	}
}

func TestHeaderSetAdd(t *testing.T) {
	s := NewHeaderSet()
	s.Add("X-Tag", "a")
	s.Add("X-Tag", "b")

	if vv := s.Header()["X-Tag"]; !reflect.DeepEqual(vv, []string{"a", "b"}) {
		t.Errorf("values = %v, want [a b]", vv)
	}
}

func TestHeaderSetNamesFirstSetOrder(t *testing.T) {
	s := NewHeaderSet()
	s.Set("X-Second", "2")
	s.Set("X-First", "1")
	s.Set("X-Second", "2b") // re-set must not move the name

	want := []string{"X-Second", "X-First"}
	if !reflect.DeepEqual(s.Names(), want) {
		t.Errorf("Names() = %v, want %v", s.Names(), want)
	}
}

func TestHeaderSetMerge(t *testing.T) {
	s := NewHeaderSet()
	s.Set("X-Kept", "base")

	s.Merge(http.Header{
		"X-New":  {"v1", "v2"},
		"X-Kept": {"overwritten"},
	})

	if got := s.Get("X-Kept"); got != "overwritten" {
		t.Errorf("X-Kept = %q, want %q", got, "overwritten")
	}
	if vv := s.Header()["X-New"]; !reflect.DeepEqual(vv, []string{"v1", "v2"}) {
		t.Errorf("X-New = %v, want [v1 v2]", vv)
	}
	want := []string{"X-Kept", "X-New"}
	if !reflect.DeepEqual(s.Names(), want) {
		t.Errorf("Names() = %v, want %v", s.Names(), want)
	}
}

func TestHeaderSetMergeDeterministicOrder(t *testing.T) {
	// Keys within one merge are recorded in sorted order regardless of
	// map iteration.
	for i := 0; i < 20; i++ {
		s := NewHeaderSet()
		s.Merge(http.Header{
			"X-Charlie": {"c"},
			"X-Alpha":   {"a"},
			"X-Bravo":   {"b"},
		})
		want := []string{"X-Alpha", "X-Bravo", "X-Charlie"}
		if !reflect.DeepEqual(s.Names(), want) {
			t.Fatalf("Names() = %v, want %v", s.Names(), want)
		}
	}
}

func TestHeaderSetMergeEmpty(t *testing.T) {
	s := NewHeaderSet()
	s.Merge(nil)
	s.Merge(http.Header{})
	if len(s.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", s.Names())
	}
}
