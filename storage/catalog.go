// Package storage is the Storage Catalog external collaborator: it maps
// datapaths to (tier-id, relative-path) pairs, lists tier properties, and
// provides the cheap same_content comparison the VDS uses to skip redundant
// stage-ins. Concrete tiers (POSIX mount, S3, Azure blob, GCS, HDFS)
// implement the archive/fast-tier hierarchy the rest of the system assumes.
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/cmn/nlog"
)

// TierInfo describes one storage tier as reported by ListTiers.
type TierInfo struct {
	ID        string
	Mount     string
	Persist   string
	Interface string
	Bandwidth int64
}

// SameResult is the three-state outcome of a content comparison; Bool
// treats Unknown as different. MountCatalog.SameContent reports a missing
// or unreadable side as Different.
type SameResult int

const (
	Unknown SameResult = iota
	Same
	Different
)

func (r SameResult) Bool() bool { return r == Same }

// Catalog is the interface the VDS and Policy Engine consume; it never
// fails outright - unrecognized paths get synthesized defaults.
type Catalog interface {
	ListTiers() map[string]TierInfo
	TierOf(absPath string) (tierID, relativePath string)
	BuildPath(tierID, relativePath string) string
	SameContent(pathA, pathB string) SameResult
}

// MountCatalog is the reference Catalog: tiers are POSIX-style mount
// points (local disk, burst-buffer, parallel scratch) plus any remote
// tiers (S3/Azure/GCS/HDFS) registered as RemoteTier backends. Mount-prefix
// matching is deterministic: longest-prefix-wins, then synthesized
// defaults for anything outside a configured mount.
type MountCatalog struct {
	mu      sync.Mutex
	tiers   map[string]TierInfo
	mounts  map[string]string // mount -> tier id, kept for longest-prefix search
	remotes map[string]RemoteTier
}

// RemoteTier is implemented by non-POSIX backends (S3, Azure blob, GCS,
// HDFS) that still need to answer "does this path look like mine" so the
// catalog can route tier_of/build_path correctly for archive tiers that
// aren't real mount points.
type RemoteTier interface {
	TierID() string
	Info() TierInfo
}

func NewMountCatalog(cfg map[string]config.TierConfig) *MountCatalog {
	c := &MountCatalog{
		tiers:   map[string]TierInfo{},
		mounts:  map[string]string{},
		remotes: map[string]RemoteTier{},
	}
	for id, t := range cfg {
		info := TierInfo{ID: id, Mount: t.Mount, Persist: t.Persist, Interface: t.Interface, Bandwidth: t.Bandwidth}
		c.tiers[id] = info
		c.mounts[t.Mount] = id
	}
	return c
}

// RegisterRemote wires a cloud/HDFS backend into the catalog under its own
// tier id, so TierOf/BuildPath can route to it by mount prefix too (remote
// backends use a synthetic "mount", e.g. "s3://bucket").
func (c *MountCatalog) RegisterRemote(t RemoteTier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := t.Info()
	c.tiers[info.ID] = info
	c.mounts[info.Mount] = info.ID
	c.remotes[info.ID] = t
}

func (c *MountCatalog) ListTiers() map[string]TierInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]TierInfo, len(c.tiers))
	for k, v := range c.tiers {
		out[k] = v
	}
	return out
}

// TierOf performs deterministic longest-mount-prefix matching. A path that
// matches no configured mount gets a synthesized tier id derived from its
// longest ancestor directory, registered for future lookups - this never
// fails.
func (c *MountCatalog) TierOf(absPath string) (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	best := ""
	for mount := range c.mounts {
		if mount == "" {
			continue
		}
		if absPath == mount || strings.HasPrefix(absPath, strings.TrimRight(mount, "/")+"/") {
			if len(mount) > len(best) {
				best = mount
			}
		}
	}
	if best != "" {
		tierID := c.mounts[best]
		rel := strings.TrimPrefix(absPath, best)
		rel = strings.TrimPrefix(rel, "/")
		return tierID, rel
	}

	// synthesize a default tier for the longest existing ancestor directory
	ancestor := longestExistingAncestor(absPath)
	defaultID := sanitizeMount(ancestor)
	if defaultID == "" {
		defaultID = "root"
	}
	nlog.Infof("defaulting storage-id for mount point %s to %s", ancestor, defaultID)
	c.tiers[defaultID] = TierInfo{ID: defaultID, Mount: ancestor, Persist: "NONE", Interface: "posix"}
	c.mounts[ancestor] = defaultID
	rel := strings.TrimPrefix(absPath, ancestor)
	rel = strings.TrimPrefix(rel, "/")
	return defaultID, rel
}

func (c *MountCatalog) BuildPath(tierID, relativePath string) string {
	c.mu.Lock()
	info, ok := c.tiers[tierID]
	c.mu.Unlock()
	if !ok {
		return relativePath
	}
	return filepath.Join(info.Mount, relativePath)
}

// SameContent performs a cheap recursive compare: byte compare for files,
// single-level directory compare (entry names only) for directories. Any stat
// failure is treated as "different", not "unknown".
func (c *MountCatalog) SameContent(pathA, pathB string) SameResult {
	infoA, errA := os.Stat(pathA)
	infoB, errB := os.Stat(pathB)
	if errA != nil || errB != nil {
		nlog.Debugf("same_content stat failure: %v / %v", errA, errB)
		return Different
	}
	if infoA.IsDir() != infoB.IsDir() {
		return Different
	}
	if infoA.IsDir() {
		return sameDirShallow(pathA, pathB)
	}
	return sameFile(pathA, pathB)
}

func sameDirShallow(a, b string) SameResult {
	entA, errA := os.ReadDir(a)
	entB, errB := os.ReadDir(b)
	if errA != nil || errB != nil {
		return Different
	}
	if len(entA) != len(entB) {
		return Different
	}
	namesA := direntNames(entA)
	namesB := direntNames(entB)
	sort.Strings(namesA)
	sort.Strings(namesB)
	for i := range namesA {
		if namesA[i] != namesB[i] {
			return Different
		}
	}
	return Same
}

func direntNames(entries []os.DirEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func sameFile(a, b string) SameResult {
	digestA, errA := fileDigest(a)
	digestB, errB := fileDigest(b)
	if errA != nil || errB != nil {
		return Different
	}
	if digestA == digestB {
		return Same
	}
	return Different
}

func longestExistingAncestor(path string) string {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "/"
		}
		dir = parent
	}
}

func sanitizeMount(mount string) string {
	if mount == "/" {
		return "root"
	}
	return strings.ReplaceAll(strings.Trim(mount, "/"), "/", "_")
}
