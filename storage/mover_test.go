package storage_test

import (
	"strings"
	"testing"

	"github.com/dghoshal-lbl/madats/storage"
)

func TestSelectMoverPicksPosixByDefault(t *testing.T) {
	src := storage.TierInfo{ID: "scratch", Interface: "posix"}
	dest := storage.TierInfo{ID: "burst", Interface: "posix"}
	if _, ok := storage.SelectMover(src, dest).(storage.PosixMover); !ok {
		t.Fatalf("expected PosixMover for two posix tiers")
	}
}

func TestSelectMoverPicksArchiveForArchiveTier(t *testing.T) {
	src := storage.TierInfo{ID: "archive", Interface: "posix"}
	dest := storage.TierInfo{ID: "burst", Interface: "posix"}
	if _, ok := storage.SelectMover(src, dest).(storage.ArchiveMover); !ok {
		t.Fatalf("expected ArchiveMover when either tier id is archive")
	}
}

func TestSelectMoverPicksCloudForRemoteInterface(t *testing.T) {
	src := storage.TierInfo{ID: "scratch", Interface: "posix"}
	dest := storage.TierInfo{ID: "bucket", Interface: "s3"}
	if _, ok := storage.SelectMover(src, dest).(storage.CloudMover); !ok {
		t.Fatalf("expected CloudMover when either tier is a cloud interface")
	}
}

func TestPosixMoverCommand(t *testing.T) {
	cmd := storage.PosixMover{}.Command(storage.TierInfo{}, storage.TierInfo{}, "/a", "/b")
	if !strings.HasPrefix(cmd, "cp -R") || !strings.Contains(cmd, "/a") || !strings.Contains(cmd, "/b") {
		t.Fatalf("unexpected posix mover command: %q", cmd)
	}
}

func TestFingerprintPathIsDeterministicAndInjective(t *testing.T) {
	a := storage.FingerprintPath("/data/foo")
	b := storage.FingerprintPath("/data/foo")
	c := storage.FingerprintPath("/data/bar")
	if a != b {
		t.Fatalf("expected same path to fingerprint identically, got %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("expected different paths to fingerprint differently")
	}
}

func TestFingerprintDataTaskVariesByKind(t *testing.T) {
	mover := storage.FingerprintDataTask("src", "dest", "MOVER")
	preparer := storage.FingerprintDataTask("src", "dest", "PREPARER")
	if mover == preparer {
		t.Fatalf("expected distinct ids for distinct data task kinds")
	}
	again := storage.FingerprintDataTask("src", "dest", "MOVER")
	if mover != again {
		t.Fatalf("expected re-computation of the same (src, dest, kind) to be stable")
	}
}
