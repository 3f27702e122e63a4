package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zlink-cloudtech/spec-kit/internal/errors"
	"github.com/zlink-cloudtech/spec-kit/internal/util"
)

// checksumSuffix marks sha256 sidecar files next to package blobs.
const checksumSuffix = ".sha256"

// PackageMetadata describes one stored package.
type PackageMetadata struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage keeps package blobs in a flat directory. Checksum sidecars live
// beside the blobs and are excluded from listings.
type Storage struct {
	root string
}

// NewStorage creates the root directory if needed.
func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Storage{root: root}, nil
}

// Root returns the storage directory.
func (s *Storage) Root() string {
	return s.root
}

// validateName rejects names that would escape the storage directory.
func validateName(name string) error {
	if name == "" {
		return errors.ErrPackageInvalid("Filename required")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return errors.ErrPackageInvalid(fmt.Sprintf("Invalid package name: %s", name))
	}
	return nil
}

// Path returns the blob location for name after validating it.
func (s *Storage) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// Exists reports whether a package blob is present.
func (s *Storage) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save writes a package blob atomically.
func (s *Storage) Save(name string, content []byte) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, content, 0o644)
}

// SaveChecksum writes the sha256 sidecar for name.
func (s *Storage) SaveChecksum(name, sumHex string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path+checksumSuffix, []byte(sumHex+"  "+name+"\n"), 0o644)
}

// List returns metadata for every stored package, in directory order.
// Checksum sidecars are implementation detail and never listed.
func (s *Storage) List() ([]PackageMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list storage: %w", err)
	}

	packages := make([]PackageMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), checksumSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		packages = append(packages, PackageMetadata{
			Name:      e.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	return packages, nil
}

// Delete removes a package blob and its checksum sidecar.
func (s *Storage) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if !s.Exists(name) {
		return errors.ErrPackageNotFound(name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	os.Remove(path + checksumSuffix)
	return nil
}
