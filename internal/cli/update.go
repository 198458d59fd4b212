package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/pkgfile"
	"github.com/ralt/repose/internal/repo"
	"github.com/ralt/repose/internal/scanner"
	"github.com/ralt/repose/internal/signer"
	"github.com/ralt/repose/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func addRepoFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("root", "r", ".", "Repository directory holding packages and databases")
	cmd.Flags().StringP("compression", "c", string(models.CompressZstd), "Database compression (none, gzip, xz, zstd)")
	cmd.Flags().Bool("files", true, "Also maintain the <repo>.files database")
	cmd.Flags().StringP("gpg-key", "k", "", "Path to GPG private key used to sign databases")
	cmd.Flags().StringP("gpg-passphrase", "p", "", "GPG key passphrase")
}

// NewUpdateCmd creates the update command
func NewUpdateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <repo-name>",
		Short: "Add the packages found in the root to the repository",
		Long: `Scans the root directory for pacman packages, parses their .PKGINFO
and writes the repository databases. Packages already in an existing
database are kept unless a newer build of the same package is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configFromViper(v, args[0])
			if err != nil {
				return err
			}
			config.Jobs = v.GetInt("jobs")
			config.Arch = v.GetString("arch")
			config.Clean = v.GetBool("clean")
			config.Rebuild = v.GetBool("rebuild")

			logrus.Info("Starting repository update...")
			logrus.Debugf("Configuration: %+v", *config)

			return runUpdate(cmd.Context(), config)
		},
	}

	addRepoFlags(cmd)
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Packages parsed in parallel")
	cmd.Flags().StringP("arch", "a", "", "Only add packages built for this architecture or any")
	cmd.Flags().Bool("clean", false, "Delete package archives superseded by newer versions")
	cmd.Flags().Bool("rebuild", false, "Ignore the existing database and rebuild it from the root")

	return cmd
}

// NewRemoveCmd creates the remove command
func NewRemoveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <repo-name> <package>...",
		Short: "Drop packages from the repository databases",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configFromViper(v, args[0])
			if err != nil {
				return err
			}
			config.Clean = v.GetBool("clean")
			return runRemove(cmd.Context(), config, args[1:])
		},
	}

	addRepoFlags(cmd)
	cmd.Flags().Bool("clean", false, "Delete the archives of removed packages")

	return cmd
}

func configFromViper(v *viper.Viper, name string) (*models.RepositoryConfig, error) {
	config := &models.RepositoryConfig{
		Root:          v.GetString("root"),
		RepoName:      name,
		Compression:   models.Compression(v.GetString("compression")),
		Files:         v.GetBool("files"),
		GPGKeyPath:    v.GetString("gpg-key"),
		GPGPassphrase: v.GetString("gpg-passphrase"),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *models.RepositoryConfig) error {
	if config.Root == "" {
		return &models.ReposeError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("root is required"),
		}
	}

	if repo.SanitizeRepoName(config.RepoName) == "" {
		return &models.ReposeError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("repository name is required"),
		}
	}

	switch config.Compression {
	case models.CompressNone, models.CompressGzip, models.CompressXZ, models.CompressZstd:
	default:
		return &models.ReposeError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unsupported compression %q", config.Compression),
		}
	}

	return nil
}

func newSigner(config *models.RepositoryConfig) (signer.Signer, error) {
	if config.GPGKeyPath == "" {
		return nil, nil
	}

	s, err := signer.NewGPGSigner(config.GPGKeyPath, config.GPGPassphrase)
	if err != nil {
		return nil, &models.ReposeError{
			Type: models.ErrSigning,
			Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
		}
	}
	logrus.Info("GPG signer initialized")
	return s, nil
}

// loadPackages parses package files in parallel, one parser per package.
// Packages that fail to parse are skipped with a warning.
func loadPackages(ctx context.Context, files []scanner.PackageFile, jobs int) ([]models.Package, error) {
	if jobs <= 0 {
		jobs = 1
	}

	results := make([]*models.Package, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			logrus.Debugf("Parsing package: %s (%s)", f.Path, humanize.IBytes(uint64(f.Size)))
			pkg, err := pkgfile.Load(f.Path, f.Signature)
			if err != nil {
				logrus.Warnf("Failed to parse %s: %v", f.Path, err)
				return nil
			}
			results[i] = pkg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var packages []models.Package
	for _, pkg := range results {
		if pkg != nil {
			packages = append(packages, *pkg)
		}
	}
	return packages, nil
}

// loadExisting reads the current database, verifying its signature when a
// signer is configured and a signature exists
func loadExisting(config *models.RepositoryConfig, kind string, s signer.Signer) ([]models.Package, error) {
	dbPath := repo.DatabasePath(config, kind)
	if !utils.Exists(dbPath) {
		return nil, nil
	}

	if s != nil && utils.Exists(dbPath+".sig") {
		data, err := os.ReadFile(dbPath)
		if err != nil {
			return nil, err
		}
		sig, err := os.ReadFile(dbPath + ".sig")
		if err != nil {
			return nil, err
		}
		if err := s.VerifyDetached(data, sig); err != nil {
			return nil, &models.ReposeError{Type: models.ErrSigning, Package: dbPath, Err: err}
		}
	}

	packages, err := repo.ReadFile(dbPath)
	if err != nil {
		return nil, &models.ReposeError{Type: models.ErrDatabase, Package: dbPath, Err: err}
	}
	logrus.Infof("Loaded %d packages from %s", len(packages), dbPath)
	return packages, nil
}

// openExisting is loadExisting for commands that need a database to work on
func openExisting(config *models.RepositoryConfig, s signer.Signer) ([]models.Package, error) {
	existing, err := loadExisting(config, existingKind(config), s)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &models.ReposeError{
			Type: models.ErrDatabase,
			Err:  fmt.Errorf("no database found for %s in %s", config.RepoName, config.Root),
		}
	}
	return existing, nil
}

// existingKind picks the database to read back. The files db is a superset
// of the desc db, so it is preferred when it is maintained.
func existingKind(config *models.RepositoryConfig) string {
	if config.Files && utils.Exists(repo.DatabasePath(config, "files")) {
		return "files"
	}
	return "db"
}

// filterArch drops packages built for an architecture other than arch
func filterArch(packages []models.Package, arch string) []models.Package {
	if arch == "" {
		return packages
	}

	kept := packages[:0]
	for _, pkg := range packages {
		if pkg.Architecture != arch && pkg.Architecture != "any" {
			logrus.Debugf("Skipping %s: not built for %s", pkg.Filename, arch)
			continue
		}
		kept = append(kept, pkg)
	}
	return kept
}

func runUpdate(ctx context.Context, config *models.RepositoryConfig) error {
	s, err := newSigner(config)
	if err != nil {
		return err
	}

	// Step 1: Scan for packages
	logrus.Infof("Scanning directory: %s", config.Root)
	var sc scanner.Scanner = scanner.NewFileSystemScanner()
	files, err := sc.Scan(ctx, config.Root)
	if err != nil {
		return &models.ReposeError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to scan directory: %w", err),
		}
	}

	// Step 2: Parse packages
	packages, err := loadPackages(ctx, files, config.Jobs)
	if err != nil {
		return err
	}
	packages = filterArch(packages, config.Arch)
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Filename < packages[j].Filename
	})

	if err := repo.ValidatePackages(packages); err != nil {
		return &models.ReposeError{
			Type: models.ErrPackageParse,
			Err:  fmt.Errorf("package validation failed: %w", err),
		}
	}

	// Step 3: Merge with the existing database
	var existing []models.Package
	if !config.Rebuild {
		existing, err = loadExisting(config, existingKind(config), s)
		if err != nil {
			return err
		}
	}

	merged, superseded := repo.Merge(existing, packages)

	// Step 4: Write databases
	if err := repo.NewGenerator(s).Generate(ctx, config, merged); err != nil {
		return &models.ReposeError{
			Type: models.ErrDatabase,
			Err:  fmt.Errorf("failed to write %s database: %w", config.RepoName, err),
		}
	}

	if config.Clean {
		if err := repo.Clean(config.Root, superseded); err != nil {
			return &models.ReposeError{Type: models.ErrFileOp, Err: err}
		}
	}

	logrus.Infof("Repository %s updated (%d packages)", config.RepoName, len(merged))
	return nil
}

func runRemove(ctx context.Context, config *models.RepositoryConfig, names []string) error {
	s, err := newSigner(config)
	if err != nil {
		return err
	}

	existing, err := openExisting(config, s)
	if err != nil {
		return err
	}

	kept, removed, missing := repo.Remove(existing, names)
	for _, name := range missing {
		logrus.Warnf("Package %s not found in %s", name, config.RepoName)
	}

	if err := repo.NewGenerator(s).Generate(ctx, config, kept); err != nil {
		return &models.ReposeError{
			Type: models.ErrDatabase,
			Err:  fmt.Errorf("failed to write %s database: %w", config.RepoName, err),
		}
	}

	if config.Clean {
		if err := repo.Clean(config.Root, removed); err != nil {
			return &models.ReposeError{Type: models.ErrFileOp, Err: err}
		}
	}
	return nil
}
