package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/signer"
	"github.com/ralt/repose/internal/utils"
	"github.com/sirupsen/logrus"
)

// Generator writes the databases of a pacman repository
type Generator struct {
	signer signer.Signer
	now    func() time.Time
}

// NewGenerator creates a new generator; s may be nil for unsigned repositories
func NewGenerator(s signer.Signer) *Generator {
	return &Generator{
		signer: s,
		now:    time.Now,
	}
}

// DatabasePath returns the path of the named database (db or files)
func DatabasePath(config *models.RepositoryConfig, kind string) string {
	name := fmt.Sprintf("%s.%s%s", SanitizeRepoName(config.RepoName), kind, config.Compression.Extension())
	return filepath.Join(config.Root, name)
}

// Generate writes <repo>.db (and <repo>.files when enabled) into the root
func (g *Generator) Generate(ctx context.Context, config *models.RepositoryConfig, packages []models.Package) error {
	logrus.Infof("Writing %s database (%d packages)", config.RepoName, len(packages))

	if err := utils.EnsureDir(config.Root); err != nil {
		return err
	}

	mtime := g.now()

	if err := g.writeDatabase(ctx, config, "db", ContentsDesc, packages, mtime); err != nil {
		return err
	}

	if config.Files {
		if err := g.writeDatabase(ctx, config, "files", ContentsDesc|ContentsFiles, packages, mtime); err != nil {
			return err
		}
	}

	if g.signer != nil {
		logrus.Info("Repository signed successfully")
	}

	return nil
}

func (g *Generator) writeDatabase(ctx context.Context, config *models.RepositoryConfig, kind string, contents Contents, packages []models.Package, mtime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Build(packages, contents, config.Compression, mtime)
	if err != nil {
		return fmt.Errorf("failed to build %s database: %w", kind, err)
	}

	dbPath := DatabasePath(config, kind)
	if err := utils.WriteFile(dbPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}

	// pacman downloads <repo>.db, so keep a copy under the short name
	linkPath := filepath.Join(config.Root, fmt.Sprintf("%s.%s", SanitizeRepoName(config.RepoName), kind))
	if err := utils.CopyFile(dbPath, linkPath); err != nil {
		return fmt.Errorf("failed to copy database: %w", err)
	}

	logrus.Debugf("Wrote %s (%d bytes)", dbPath, len(data))

	if g.signer == nil {
		return nil
	}

	signature, err := g.signer.SignDetached(data)
	if err != nil {
		return fmt.Errorf("failed to sign database: %w", err)
	}

	for _, p := range []string{dbPath, linkPath} {
		if err := utils.WriteFile(p+".sig", signature, 0644); err != nil {
			return fmt.Errorf("failed to write database signature: %w", err)
		}
	}

	return nil
}

// SanitizeRepoName sanitizes a repository name for use in filenames
func SanitizeRepoName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	// Replace any character that's not alphanumeric, hyphen or underscore
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('-')
		}
	}
	return result.String()
}

// ValidatePackages checks that packages carry what a database entry needs
func ValidatePackages(packages []models.Package) error {
	for _, pkg := range packages {
		if pkg.Name == "" {
			return fmt.Errorf("package missing name: %s", pkg.Filename)
		}
		if pkg.Version == "" {
			return fmt.Errorf("package missing version: %s", pkg.Filename)
		}
		if pkg.Architecture == "" {
			return fmt.Errorf("package missing architecture: %s", pkg.Filename)
		}
		if !strings.Contains(pkg.Filename, ".pkg.tar") {
			return fmt.Errorf("invalid package filename: %s", pkg.Filename)
		}
	}
	return nil
}
