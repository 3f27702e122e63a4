package release

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"sort"

	"github.com/zlink-cloudtech/spec-kit/internal/errors"
)

// Service implements the package operations over a Storage, enforcing the
// upload and retention rules.
type Service struct {
	storage     *Storage
	maxPackages int
	logger      *slog.Logger
}

// NewService returns a Service with the given retention limit.
func NewService(storage *Storage, maxPackages int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{storage: storage, maxPackages: maxPackages, logger: logger}
}

// List returns all packages, newest first.
func (s *Service) List() ([]PackageMetadata, error) {
	packages, err := s.storage.List()
	if err != nil {
		return nil, err
	}
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].CreatedAt.After(packages[j].CreatedAt)
	})
	return packages, nil
}

// Upload stores a new package with its sha256 checksum. An existing name is
// a conflict unless overwrite is set; empty names and payloads are rejected.
func (s *Service) Upload(name string, content []byte, overwrite bool) (PackageMetadata, error) {
	if err := validateName(name); err != nil {
		return PackageMetadata{}, err
	}
	if len(content) == 0 {
		return PackageMetadata{}, errors.ErrPackageInvalid("Empty file not allowed")
	}
	if !overwrite && s.storage.Exists(name) {
		return PackageMetadata{}, errors.ErrPackageExists(name)
	}

	if err := s.storage.Save(name, content); err != nil {
		return PackageMetadata{}, err
	}

	sum := sha256.Sum256(content)
	if err := s.storage.SaveChecksum(name, hex.EncodeToString(sum[:])); err != nil {
		// The blob is stored; a missing sidecar is worth a warning, not a
		// failed upload.
		s.logger.Warn("checksum write failed", "package", name, "error", err)
	}

	path, _ := s.storage.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		return PackageMetadata{}, err
	}
	return PackageMetadata{Name: name, Size: info.Size(), CreatedAt: info.ModTime().UTC()}, nil
}

// Cleanup enforces the retention limit, deleting beyond the newest
// maxPackages. Individual delete failures are logged and skipped. Returns
// the number deleted.
func (s *Service) Cleanup() int {
	packages, err := s.List()
	if err != nil {
		s.logger.Warn("cleanup listing failed", "error", err)
		return 0
	}
	if len(packages) <= s.maxPackages {
		return 0
	}

	deleted := 0
	for _, pkg := range packages[s.maxPackages:] {
		if err := s.storage.Delete(pkg.Name); err != nil {
			s.logger.Warn("cleanup delete failed", "package", pkg.Name, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Info("retention cleanup", "deleted", deleted, "kept", s.maxPackages)
	}
	return deleted
}

// Delete removes one package.
func (s *Service) Delete(name string) error {
	return s.storage.Delete(name)
}

// Open returns the blob path for download, or PACKAGE_NOT_FOUND.
func (s *Service) Open(name string) (string, error) {
	path, err := s.storage.Path(name)
	if err != nil {
		return "", err
	}
	if !s.storage.Exists(name) {
		return "", errors.ErrPackageNotFound(name)
	}
	return path, nil
}
