package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// LatestPointer is the file or symlink beside the numbered spec directories
// that names the newest one.
const LatestPointer = ".latest"

// specDirSubdirs are created inside every new spec directory.
var specDirSubdirs = []string{"sessions", "checklists", "agent-logs"}

// CreateSpecDir allocates the next numbered spec directory under specsRoot
// for the given requirement, creates its standard subdirectories and updates
// the .latest pointer. The directory name is NNN-<short-name> where NNN
// continues the existing numbering.
func CreateSpecDir(specsRoot, requirement string) (string, error) {
	if err := os.MkdirAll(specsRoot, 0o755); err != nil {
		return "", fmt.Errorf("create specs root: %w", err)
	}

	num := nextSpecNumber(specsRoot)
	name := fmt.Sprintf("%03d-%s", num, shortName(requirement))
	dir := filepath.Join(specsRoot, name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create spec dir: %w", err)
	}
	for _, sub := range specDirSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return "", fmt.Errorf("create spec subdir %s: %w", sub, err)
		}
	}

	updateLatestPointer(specsRoot, name)

	return dir, nil
}

// LatestSpecDir returns the newest numbered spec directory under specsRoot,
// following the .latest pointer when valid and falling back to a directory
// scan. ok is false when none exist.
func LatestSpecDir(specsRoot string) (string, bool) {
	pointer := filepath.Join(specsRoot, LatestPointer)
	if target, err := os.Readlink(pointer); err == nil {
		dir := filepath.Join(specsRoot, target)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	} else if data, err := os.ReadFile(pointer); err == nil {
		dir := filepath.Join(specsRoot, strings.TrimSpace(string(data)))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}

	names := numberedSpecDirs(specsRoot)
	if len(names) == 0 {
		return "", false
	}
	return filepath.Join(specsRoot, names[len(names)-1]), true
}

// nextSpecNumber returns max existing NNN + 1, starting at 1.
func nextSpecNumber(specsRoot string) int {
	max := 0
	for _, name := range numberedSpecDirs(specsRoot) {
		n, err := strconv.Atoi(name[:3])
		if err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// numberedSpecDirs lists NNN-* directories under specsRoot, sorted by name
// (which sorts by number thanks to the zero padding).
func numberedSpecDirs(specsRoot string) []string {
	entries, err := os.ReadDir(specsRoot)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > 4 && name[3] == '-' && isDigits(name[:3]) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// shortName derives a directory-safe slug from the requirement text: lowered,
// stripped to [a-z0-9 ], first three words joined with dashes, capped at 30
// characters.
func shortName(requirement string) string {
	lower := strings.ToLower(requirement)

	var b strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	if len(words) > 3 {
		words = words[:3]
	}
	name := strings.Join(words, "-")
	if len(name) > 30 {
		name = name[:30]
	}
	name = strings.TrimRight(name, "-")
	if name == "" {
		name = "feature"
	}
	return name
}

// updateLatestPointer points specsRoot/.latest at name. Symlink first; on
// filesystems without symlink support a plain file holding the name serves
// the same purpose. Pointer failures are not fatal because the directory
// scan fallback still works.
func updateLatestPointer(specsRoot, name string) {
	pointer := filepath.Join(specsRoot, LatestPointer)
	os.Remove(pointer)
	if err := os.Symlink(name, pointer); err != nil {
		_ = os.WriteFile(pointer, []byte(name+"\n"), 0o644)
	}
}
