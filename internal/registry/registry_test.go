package registry

import (
	"net"
	"sync"
	"testing"
)

func pipeConns(t *testing.T, n int) []net.Conn {
	t.Helper()
	var conns []net.Conn
	for i := 0; i < n; i++ {
		a, b := net.Pipe()
		t.Cleanup(func() {
			a.Close()
			b.Close()
		})
		conns = append(conns, a)
	}
	return conns
}

func TestRegistry_InsertionOrder(t *testing.T) {
	r := New()
	conns := pipeConns(t, 3)
	for _, c := range conns {
		r.Add(c)
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, e := range list {
		if e.Conn != conns[i] {
			t.Errorf("entry %d out of order", i)
		}
		if e.ID != uint64(i+1) {
			t.Errorf("entry %d id = %d, want %d", i, e.ID, i+1)
		}
	}
}

func TestRegistry_NoDuplicates(t *testing.T) {
	r := New()
	c := pipeConns(t, 1)[0]

	first := r.Add(c)
	second := r.Add(c)
	if first != second {
		t.Error("adding the same conn twice should return the same entry")
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := New()
	conns := pipeConns(t, 3)
	for _, c := range conns {
		r.Add(c)
	}

	if !r.Remove(2) {
		t.Fatal("Remove(2) = false")
	}
	if r.Remove(2) {
		t.Error("second Remove(2) should report false")
	}
	if _, ok := r.Get(2); ok {
		t.Error("Get(2) should miss after removal")
	}

	list := r.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 3 {
		t.Errorf("unexpected entries after remove: %+v", list)
	}

	// Ids are never reused.
	e := r.Add(conns[1])
	if e.ID != 4 {
		t.Errorf("re-added conn id = %d, want 4", e.ID)
	}
}

func TestRegistry_ListIsSnapshot(t *testing.T) {
	r := New()
	r.Add(pipeConns(t, 1)[0])

	list := r.List()
	list[0].Remote = "mutated"

	e, _ := r.Get(1)
	if e.Remote == "mutated" {
		t.Error("List should return copies")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New()
	conns := pipeConns(t, 50)

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			r.Add(c)
			_ = r.List()
		}(c)
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Errorf("len = %d, want 50", r.Len())
	}
	seen := make(map[uint64]bool)
	for _, e := range r.List() {
		if seen[e.ID] {
			t.Errorf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestRegistry_RemoteDescriptor(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	server, err := ln.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	e := New().Add(server)
	if want := client.LocalAddr().String(); e.Remote != want {
		t.Errorf("Remote = %q, want %q", e.Remote, want)
	}
	if e.Since.IsZero() {
		t.Error("Since should be set on add")
	}
}
