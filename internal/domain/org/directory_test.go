package org

import "testing"

func TestGrandSupervisorOf(t *testing.T) {
	dir := NewDirectory([]Employee{
		{ID: "staff", SupervisorID: "n2"},
		{ID: "n2", SupervisorID: "n1"},
		{ID: "n1"},
	})

	if got := dir.SupervisorOf("staff"); got != "n2" {
		t.Fatalf("expected n2, got %q", got)
	}
	if got := dir.GrandSupervisorOf("staff"); got != "n1" {
		t.Fatalf("expected n1, got %q", got)
	}
	if got := dir.GrandSupervisorOf("n1"); got != "" {
		t.Fatalf("expected no grand supervisor for the top of the chain, got %q", got)
	}
}

func TestGrandSupervisorOfSelfCycle(t *testing.T) {
	dir := NewDirectory([]Employee{
		{ID: "a", SupervisorID: "a"},
		{ID: "b", SupervisorID: "c"},
		{ID: "c", SupervisorID: "b"},
	})

	if got := dir.GrandSupervisorOf("a"); got != "" {
		t.Fatalf("self-supervising employee must yield no grand supervisor, got %q", got)
	}
	// b -> c -> b is a two-cycle; the grand supervisor would be b itself.
	if got := dir.GrandSupervisorOf("b"); got != "" {
		t.Fatalf("two-cycle must not resolve to the employee itself, got %q", got)
	}
}

func TestSupervisorOfUnknown(t *testing.T) {
	dir := NewDirectory(nil)
	if got := dir.SupervisorOf("ghost"); got != "" {
		t.Fatalf("unknown employee should have no supervisor, got %q", got)
	}
}
