package version

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	identityOnce sync.Once
	identityVal  string
)

// Identity is a best-effort build identity that changes on rebuilds. The CLI
// compares it against the running daemon to detect version drift, so two
// different binaries should never report the same identity.
//
// Format, best case first:
//   - <rev12><-dirty?>+<digest12>
//   - <digest12> (no vcs metadata in the binary)
//   - <rev12><-dirty?> (hashing the executable failed)
//   - unknown
func Identity() string {
	identityOnce.Do(func() {
		rev := buildRevision()
		digest := binaryDigest()

		switch {
		case rev != "" && digest != "":
			identityVal = rev + "+" + digest
		case digest != "":
			identityVal = digest
		case rev != "":
			identityVal = rev
		default:
			identityVal = "unknown"
		}
	})
	return identityVal
}

// buildRevision reads the vcs revision stamped into the binary, truncated to
// 12 characters, with a -dirty suffix for modified trees.
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = strings.TrimSpace(setting.Value)
		case "vcs.modified":
			switch strings.TrimSpace(strings.ToLower(setting.Value)) {
			case "true", "1", "yes":
				dirty = true
			}
		}
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}
	if revision != "" && dirty {
		revision += "-dirty"
	}
	return revision
}

// binaryDigest hashes the running executable. Unlike the vcs revision it
// changes even across builds from the same commit with different flags.
func binaryDigest() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil && strings.TrimSpace(resolved) != "" {
		exe = resolved
	}

	f, err := os.Open(exe)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if len(sum) > 12 {
		sum = sum[:12]
	}
	return sum
}
