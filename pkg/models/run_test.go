package models

import "testing"

func TestNewRunStateSeedsHistory(t *testing.T) {
	st := NewRunState("run1", "how many wells at Cepu?", "u1", "analyst")

	if len(st.History) != 1 {
		t.Fatalf("expected history seeded with one message, got %d", len(st.History))
	}
	if st.History[0].Role != RoleUser || st.History[0].Content != "how many wells at Cepu?" {
		t.Errorf("unexpected seed message: %+v", st.History[0])
	}
	if _, set := st.FinalResponse(); set {
		t.Error("new run state should have no final response")
	}
}

func TestSetFinalResponseOnce(t *testing.T) {
	st := NewRunState("run1", "q", "u1", "analyst")

	if !st.SetFinalResponse("first") {
		t.Fatal("first set should succeed")
	}
	if st.SetFinalResponse("second") {
		t.Error("second set should be rejected")
	}

	got, set := st.FinalResponse()
	if !set || got != "first" {
		t.Errorf("expected final response %q, got %q (set=%t)", "first", got, set)
	}
}
