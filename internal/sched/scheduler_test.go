package sched

import "testing"

func TestTargetCPUAffinityZeroUsesCurrentCPU(t *testing.T) {
	if got := targetCPU(0); got != 0 {
		t.Errorf("targetCPU(0) = %d, want current CPU (0 on this test's host)", got)
	}
}

func TestTargetCPUPicksLowestIndexInMask(t *testing.T) {
	if got := targetCPU(0b1010); got != 1 {
		t.Errorf("targetCPU(0b1010) = %d, want 1 (lowest set bit)", got)
	}
	if got := targetCPU(0b1000); got != 3 {
		t.Errorf("targetCPU(0b1000) = %d, want 3", got)
	}
}

func TestTaskNameTruncation(t *testing.T) {
	var task Task
	task.setName("a-name-much-longer-than-the-fixed-buffer")
	if len(task.Name()) != maxNameLen {
		t.Errorf("Name() length = %d, want %d", len(task.Name()), maxNameLen)
	}
}

func TestTaskNameShortRoundTrips(t *testing.T) {
	var task Task
	task.setName("t1")
	if got := task.Name(); got != "t1" {
		t.Errorf("Name() = %q, want %q", got, "t1")
	}
}
