package orderflow

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		from    Status
		want    Status
		allowed bool
	}{
		{StatusPending, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusCompleted, true},
		{StatusCompleted, "", false},
		{StatusCancelled, "", false},
		{Status("bogus"), "", false},
	}

	for _, tt := range tests {
		got, ok := Next(tt.from)
		if ok != tt.allowed {
			t.Errorf("Next(%q) allowed = %v, want %v", tt.from, ok, tt.allowed)
		}
		if ok && got != tt.want {
			t.Errorf("Next(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestNextChainTerminates(t *testing.T) {
	// Walking from pending must reach a terminal state without cycling.
	s := StatusPending
	steps := 0
	for {
		n, ok := Next(s)
		if !ok {
			break
		}
		s = n
		steps++
		if steps > len(AllStatuses) {
			t.Fatalf("transition chain does not terminate, stuck after %q", s)
		}
	}
	if s != StatusCompleted {
		t.Errorf("chain ended at %q, want %q", s, StatusCompleted)
	}
	if steps != 3 {
		t.Errorf("chain length = %d, want 3", steps)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusPreparing, StatusReady} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestCanCancel(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPreparing, StatusReady} {
		if !CanCancel(s) {
			t.Errorf("CanCancel(%q) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled, Status("bogus")} {
		if CanCancel(s) {
			t.Errorf("CanCancel(%q) = true, want false", s)
		}
	}
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "Start Preparing"},
		{StatusPreparing, "Mark Ready"},
		{StatusReady, "Complete Order"},
	}
	for _, tt := range tests {
		got, ok := ActionLabel(tt.status)
		if !ok || got != tt.want {
			t.Errorf("ActionLabel(%q) = %q, %v; want %q, true", tt.status, got, ok, tt.want)
		}
	}
	if _, ok := ActionLabel(StatusCompleted); ok {
		t.Error("ActionLabel(completed) returned an action, terminal states must not have one")
	}
	if _, ok := ActionLabel(StatusCancelled); ok {
		t.Error("ActionLabel(cancelled) returned an action, terminal states must not have one")
	}
}

func TestParse(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := Parse(string(s))
		if err != nil || got != s {
			t.Errorf("Parse(%q) = %q, %v; want %q, nil", s, got, err, s)
		}
	}
	if _, err := Parse("Pending"); err == nil {
		t.Error("Parse is case-sensitive, \"Pending\" must be rejected")
	}
	if _, err := Parse(""); err == nil {
		t.Error("Parse(\"\") must be rejected")
	}
}
