package pipeline

import "testing"

func TestGuardRejectsSecondAcquire(t *testing.T) {
	g := NewGuard()
	if !g.TryAcquire("sol_1:update") {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire("sol_1:update") {
		t.Fatal("second acquire for held key should fail")
	}
	if !g.TryAcquire("sol_1:analysis") {
		t.Fatal("different key should be unaffected")
	}
}

func TestGuardReleaseAllowsReacquire(t *testing.T) {
	g := NewGuard()
	g.TryAcquire("k")
	g.Release("k")
	if !g.TryAcquire("k") {
		t.Fatal("acquire after release should succeed")
	}
}

func TestGuardReleaseOnPanicPath(t *testing.T) {
	g := NewGuard()
	func() {
		defer func() { recover() }()
		g.TryAcquire("k")
		defer g.Release("k")
		panic("guarded operation failed")
	}()
	if !g.TryAcquire("k") {
		t.Fatal("key should be free after the guarded operation panicked")
	}
}

func TestGuardReleaseUnheldKey(t *testing.T) {
	g := NewGuard()
	g.Release("never-acquired")
	if !g.TryAcquire("never-acquired") {
		t.Fatal("key should be acquirable")
	}
}
