package tracker

import "testing"

func press(at int64) ButtonEdge   { return ButtonEdge{Pressed: true, AtMillis: at} }
func release(at int64) ButtonEdge { return ButtonEdge{Pressed: false, AtMillis: at} }

// tap feeds a press+release pair and reports whether the press triggered
func tap(g *GestureRecognizer, at int64) bool {
	fired := g.HandleEdge(press(at))
	g.HandleEdge(release(at + 50))
	return fired
}

// TestGestureCompletes walks the worked example: hold 2000ms, 3 taps
// inside a 2000ms window, emergency fires on the third tap
func TestGestureCompletes(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 3)

	g.HandleEdge(press(0))
	g.Tick(1000)
	if g.Phase() != PhaseHolding {
		t.Fatalf("expected holding at 1000, got %s", g.Phase())
	}
	g.Tick(2000)
	if g.Phase() != PhaseCountingTaps {
		t.Fatalf("expected counting taps once the hold qualified, got %s", g.Phase())
	}
	g.HandleEdge(release(2000))
	if g.Phase() != PhaseCountingTaps {
		t.Fatal("releasing the qualifying hold must not abort the episode")
	}

	if tap(g, 2100) {
		t.Error("first tap must not trigger")
	}
	if tap(g, 2300) {
		t.Error("second tap must not trigger")
	}
	if !tap(g, 2900) {
		t.Error("third tap at 2900 should trigger the emergency")
	}
	if g.Phase() != PhaseIdle {
		t.Errorf("expected idle after the episode, got %s", g.Phase())
	}
}

// TestEarlyReleaseNotAHold verifies a release before the hold threshold
// discards the episode
func TestEarlyReleaseNotAHold(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 3)

	g.HandleEdge(press(0))
	g.HandleEdge(release(1999))
	if g.Phase() != PhaseIdle {
		t.Errorf("expected idle after early release, got %s", g.Phase())
	}
	// Taps without a qualifying hold do nothing
	if tap(g, 2100) || g.TapCount() != 0 {
		t.Error("taps without a qualifying hold must not count")
	}
}

// TestOneFewerTapNoEmergency verifies n-1 taps fire nothing, even after
// the window expires
func TestOneFewerTapNoEmergency(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 3)

	g.HandleEdge(press(0))
	g.Tick(2000)
	g.HandleEdge(release(2000))
	tap(g, 2100)
	tap(g, 2300)

	g.Tick(4001) // window expired
	if g.Phase() != PhaseIdle {
		t.Errorf("expected idle after window expiry, got %s", g.Phase())
	}
	if g.TapCount() != 0 {
		t.Errorf("expected partial count discarded, got %d", g.TapCount())
	}
}

// TestLateTapDoesNotCount verifies a tap after the window expired starts
// a fresh episode instead of counting
func TestLateTapDoesNotCount(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 3)

	g.HandleEdge(press(0))
	g.Tick(2000)
	g.HandleEdge(release(2000))
	tap(g, 2100)
	tap(g, 2300)

	// Third tap arrives past the window: no emergency, the press is
	// treated as the start of a new hold.
	if g.HandleEdge(press(4100)) {
		t.Error("late tap must not trigger")
	}
	if g.Phase() != PhaseHolding {
		t.Errorf("late press should begin a new hold, got %s", g.Phase())
	}
}

// TestHeldButtonIsNotATap verifies the qualifying hold itself never counts
// as a tap: only press edges inside the window do
func TestHeldButtonIsNotATap(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 1)

	g.HandleEdge(press(0))
	g.Tick(2000)
	// Button still held through the counting phase
	g.Tick(3000)
	if g.TapCount() != 0 {
		t.Errorf("held button counted as a tap: count %d", g.TapCount())
	}
	g.HandleEdge(release(3500))
	if !g.HandleEdge(press(3600)) {
		t.Error("a real press edge inside the window should trigger with tap count 1")
	}
}

// TestGestureRearm verifies a second qualifying sequence can trigger again
// immediately after the first
func TestGestureRearm(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 2)

	run := func(start int64) bool {
		g.HandleEdge(press(start))
		g.Tick(start + 2000)
		g.HandleEdge(release(start + 2000))
		tap(g, start+2100)
		return tap(g, start+2300)
	}

	if !run(0) {
		t.Fatal("first episode should trigger")
	}
	if !run(5000) {
		t.Error("second episode should trigger with no lockout")
	}
}

// TestHoldExactlyAtThreshold verifies the boundary: a release on the exact
// threshold instant still qualifies because the crossing happens first
func TestHoldExactlyAtThreshold(t *testing.T) {
	g := NewGestureRecognizer(2000, 2000, 1)

	g.HandleEdge(press(0))
	g.HandleEdge(release(2000))
	if g.Phase() != PhaseCountingTaps {
		t.Fatalf("hold of exactly the threshold should qualify, got %s", g.Phase())
	}
	if !g.HandleEdge(press(2500)) {
		t.Error("tap inside the window should trigger")
	}
}
