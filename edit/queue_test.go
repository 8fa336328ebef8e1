package edit

import (
	"errors"
	"fmt"
	"testing"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue(0)
	want := []Request{
		{KindDecl, "globals.json"},
		{KindCode, "main.jam"},
		{KindText, "strings.txt"},
		{KindSource, "extra.jaf"},
	}
	for _, r := range want {
		if err := q.Push(r.Kind, r.Path); err != nil {
			t.Fatal(err)
		}
	}
	if q.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", q.Len(), len(want))
	}
	var got []Request
	for req := range q.Drain() {
		got = append(got, req)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQueueCapacity(t *testing.T) {
	q := NewQueue(2)
	if err := q.Push(KindCode, "a.jam"); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(KindCode, "b.jam"); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(KindCode, "c.jam"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("error = %v, want ErrQueueFull", err)
	}
	// The failed push must not be partially inserted.
	if q.Len() != 2 {
		t.Fatalf("Len = %d after failed push", q.Len())
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := NewQueue(0)
	for i := 0; i < DefaultQueueCapacity; i++ {
		if err := q.Push(KindCode, fmt.Sprintf("%d.jam", i)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := q.Push(KindCode, "overflow.jam"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("error = %v, want ErrQueueFull", err)
	}
}

func TestQueueDrainIsOneShot(t *testing.T) {
	q := NewQueue(0)
	q.Push(KindCode, "a.jam")

	n := 0
	for range q.Drain() {
		n++
	}
	if n != 1 {
		t.Fatalf("first drain yielded %d", n)
	}
	for req := range q.Drain() {
		t.Fatalf("second drain yielded %v", req)
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d after drain", q.Len())
	}
}
