package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ralt/repose/internal/models"
	"github.com/sirupsen/logrus"
)

// PackageIdentity returns the unique identifier of a package within a repo
func PackageIdentity(pkg models.Package) string {
	return fmt.Sprintf("%s:%s:%s", pkg.Name, pkg.Version, pkg.Architecture)
}

// Merge combines the packages of an existing database with newly loaded
// ones. A repository holds one entry per package name. An incoming package
// replaces the entry when its version is newer, or when the versions are
// equal and it is a newer build or brings a signature the entry lacked.
// Replaced entries whose archive differs from the winner's are returned as
// superseded. The result is sorted by name.
func Merge(existing, incoming []models.Package) (merged, superseded []models.Package) {
	byName := make(map[string]models.Package, len(existing)+len(incoming))

	for _, pkg := range existing {
		byName[pkg.Name] = pkg
	}

	for _, pkg := range incoming {
		old, ok := byName[pkg.Name]
		if !ok {
			logrus.Debugf("Adding %s", PackageIdentity(pkg))
			byName[pkg.Name] = pkg
			continue
		}

		switch VersionCompare(pkg.Version, old.Version) {
		case 1:
			logrus.Infof("Updating %s -> %s", PackageIdentity(old), PackageIdentity(pkg))
		case 0:
			switch {
			case pkg.BuildDate > old.BuildDate:
				logrus.Infof("Updating %s [newer build]", PackageIdentity(pkg))
			case old.Base64Sig == nil && pkg.Base64Sig != nil:
				logrus.Infof("Adding signature for %s", PackageIdentity(pkg))
			default:
				continue
			}
		default:
			logrus.Warnf("Skipping %s: %s is newer", PackageIdentity(pkg), PackageIdentity(old))
			continue
		}

		if old.Filename != "" && old.Filename != pkg.Filename {
			superseded = append(superseded, old)
		}
		byName[pkg.Name] = pkg
	}

	merged = make([]models.Package, 0, len(byName))
	for _, pkg := range byName {
		merged = append(merged, pkg)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Name < merged[j].Name
	})

	return merged, superseded
}

// Remove drops the named packages. It returns the packages kept, the ones
// removed and the names that were not present.
func Remove(packages []models.Package, names []string) (kept, removed []models.Package, missing []string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	kept = make([]models.Package, 0, len(packages))
	for _, pkg := range packages {
		if drop[pkg.Name] {
			delete(drop, pkg.Name)
			logrus.Infof("Removing %s", PackageIdentity(pkg))
			removed = append(removed, pkg)
			continue
		}
		kept = append(kept, pkg)
	}

	for _, n := range names {
		if drop[n] {
			missing = append(missing, n)
		}
	}

	return kept, removed, missing
}

// Clean deletes the archives of packages no longer in the repository,
// along with their detached signatures
func Clean(root string, packages []models.Package) error {
	for _, pkg := range packages {
		if pkg.Filename == "" {
			continue
		}
		path := filepath.Join(root, pkg.Filename)
		for _, p := range []string{path, path + ".sig"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", p, err)
			}
		}
		logrus.Infof("Removed %s", path)
	}
	return nil
}
