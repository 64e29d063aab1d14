package vdo_test

import (
	"testing"

	"github.com/dghoshal-lbl/madats/core/vdo"
)

func TestProducersConsumersAreSets(t *testing.T) {
	v := vdo.New("id1", "/data/f1", "scratch", "f1")

	if !v.AddProducer("t1") {
		t.Fatalf("expected first AddProducer to report a change")
	}
	if v.AddProducer("t1") {
		t.Fatalf("expected duplicate AddProducer to report no change")
	}
	if len(v.Producers()) != 1 {
		t.Fatalf("expected exactly one producer, got %v", v.Producers())
	}

	v.AddConsumer("c1")
	v.AddConsumer("c2")
	v.AddConsumer("c1")
	if len(v.Consumers()) != 2 {
		t.Fatalf("expected two distinct consumers, got %v", v.Consumers())
	}
}

func TestSetProducersDedups(t *testing.T) {
	v := vdo.New("id1", "/data/f1", "scratch", "f1")
	v.SetProducers([]string{"a", "b", "a", "c"})
	if got := v.Producers(); len(got) != 3 {
		t.Fatalf("expected 3 deduped producers, got %v", got)
	}
}

func TestPersistDerivesFromPersistence(t *testing.T) {
	v := vdo.New("id1", "/data/f1", "scratch", "f1")
	if v.Persist() {
		t.Fatalf("expected default persistence NONE to not persist")
	}
	v.Persistence = vdo.PersistenceLongTerm
	if !v.Persist() {
		t.Fatalf("expected LONG_TERM persistence to persist")
	}
}

func TestMarkTemporary(t *testing.T) {
	v := vdo.New("id1", "/data/f1", "scratch", "f1")
	if v.IsTemporary() {
		t.Fatalf("expected a fresh VDO to not be temporary")
	}
	v.MarkTemporary()
	if !v.IsTemporary() {
		t.Fatalf("expected MarkTemporary to stick")
	}
}

func TestClearConsumersProducers(t *testing.T) {
	v := vdo.New("id1", "/data/f1", "scratch", "f1")
	v.AddProducer("p1")
	v.AddConsumer("c1")
	v.ClearProducers()
	v.ClearConsumers()
	if len(v.Producers()) != 0 || len(v.Consumers()) != 0 {
		t.Fatalf("expected both sets empty after clearing, got producers=%v consumers=%v", v.Producers(), v.Consumers())
	}
}
