package domain

import (
	"testing"
)

func TestLedger_AddAccumulates(t *testing.T) {
	l := NewLedger()
	l.Add("apple", 2)
	l.Add("apple", 3)

	if got := l.Quantity("apple"); got != 5 {
		t.Errorf("expected 5 apples, got %d", got)
	}
}

func TestLedger_AddIgnoresNonPositive(t *testing.T) {
	l := NewLedger()
	l.Add("apple", 0)
	l.Add("apple", -2)

	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %v", l.Snapshot())
	}
}

func TestLedger_RemoveFloorsAndPrunes(t *testing.T) {
	l := NewLedger()
	l.Add("apple", 2)

	removed := l.Remove("apple", 5)
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, ok := l.Snapshot()["apple"]; ok {
		t.Error("expected apple entry to be pruned")
	}
}

func TestLedger_RemovePartial(t *testing.T) {
	l := NewLedger()
	l.Add("banana", 4)

	if removed := l.Remove("banana", 1); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if got := l.Quantity("banana"); got != 3 {
		t.Errorf("expected 3 bananas, got %d", got)
	}
}

func TestLedger_RemoveAbsentIsNoop(t *testing.T) {
	l := NewLedger()
	if removed := l.Remove("kiwi", 1); removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
	if l.Len() != 0 {
		t.Error("expected empty ledger")
	}
}

func TestLedger_Total(t *testing.T) {
	prices := map[string]float64{"apple": 1.10, "coffee": 2.499}
	lookup := func(k string) (float64, bool) {
		p, ok := prices[k]
		return p, ok
	}

	l := NewLedger()
	if got := l.Total(lookup); got != 0 {
		t.Errorf("expected empty total 0.00, got %v", got)
	}

	l.Add("apple", 3)
	l.Add("coffee", 1)
	l.Add("ghost", 9)

	// 3.30 + 2.499 = 5.799 -> 5.80 (ghost has no price)
	if got := l.Total(lookup); got != 5.80 {
		t.Errorf("expected 5.80, got %v", got)
	}
}

func TestLedger_SnapshotIsCopy(t *testing.T) {
	l := NewLedger()
	l.Add("apple", 1)

	snap := l.Snapshot()
	snap["apple"] = 99

	if l.Quantity("apple") != 1 {
		t.Error("snapshot mutation leaked into ledger")
	}
}

func TestRestoreLedger_DropsNonPositive(t *testing.T) {
	l := RestoreLedger(map[string]int{"apple": 2, "pear": 0, "plum": -1})

	if l.Len() != 1 || l.Quantity("apple") != 2 {
		t.Errorf("unexpected restored ledger: %v", l.Snapshot())
	}
}
