package cli

import (
	"fmt"
	"time"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/repo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewQueryCmd creates the query command
func NewQueryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <repo-name> [package]...",
		Short: "List the packages in the repository database",
		Long: `Reads the repository database and prints one "name version" line per
package, or the full entry with --info. Without package arguments every
entry is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configFromViper(v, args[0])
			if err != nil {
				return err
			}

			s, err := newSigner(config)
			if err != nil {
				return err
			}
			packages, err := openExisting(config, s)
			if err != nil {
				return err
			}

			selected, err := selectPackages(packages, args[1:])
			if err != nil {
				return err
			}

			loc := time.Local
			if v.GetBool("utc") {
				loc = time.UTC
			}

			out := cmd.OutOrStdout()
			for i := range selected {
				pkg := &selected[i]
				if !v.GetBool("info") {
					fmt.Fprintf(out, "%s %s\n", pkg.Name, pkg.Version)
					continue
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%-16s: %s\n", "Filename", pkg.Filename)
				printPackage(out, pkg, loc)
			}
			return nil
		},
	}

	addRepoFlags(cmd)
	cmd.Flags().BoolP("info", "i", false, "Print the full database entry")
	cmd.Flags().Bool("utc", false, "Render dates in UTC instead of local time")

	return cmd
}

// selectPackages returns the named entries in argument order, or every
// entry when names is empty
func selectPackages(packages []models.Package, names []string) ([]models.Package, error) {
	if len(names) == 0 {
		return packages, nil
	}

	byName := make(map[string]models.Package, len(packages))
	for _, pkg := range packages {
		byName[pkg.Name] = pkg
	}

	selected := make([]models.Package, 0, len(names))
	for _, name := range names {
		pkg, ok := byName[name]
		if !ok {
			return nil, &models.ReposeError{
				Type:    models.ErrDatabase,
				Package: name,
				Err:     fmt.Errorf("package not found"),
			}
		}
		selected = append(selected, pkg)
	}
	return selected, nil
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <repo-name>",
		Short: "Check the packages in the root against the database",
		Long: `Checks that every package recorded in the database is present in the
root and still matches the recorded size, md5 and sha256 sums and
signature. With --gpg-key, detached signatures are also verified against
that key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configFromViper(v, args[0])
			if err != nil {
				return err
			}

			s, err := newSigner(config)
			if err != nil {
				return err
			}
			packages, err := openExisting(config, s)
			if err != nil {
				return err
			}

			failed := 0
			for _, pkg := range packages {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := repo.VerifyPackage(config.Root, pkg, s); err != nil {
					logrus.Warnf("%s: %v", repo.PackageIdentity(pkg), err)
					failed++
				}
			}

			if failed > 0 {
				return &models.ReposeError{
					Type: models.ErrVerify,
					Err:  fmt.Errorf("%d of %d packages failed verification", failed, len(packages)),
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d packages okay\n", config.RepoName, len(packages))
			return nil
		},
	}

	addRepoFlags(cmd)

	return cmd
}

// NewExportKeyCmd creates the export-key command
func NewExportKeyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-key",
		Short: "Print the armored public key used to sign databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := &models.RepositoryConfig{
				GPGKeyPath:    v.GetString("gpg-key"),
				GPGPassphrase: v.GetString("gpg-passphrase"),
			}
			if config.GPGKeyPath == "" {
				return &models.ReposeError{
					Type: models.ErrInvalidConfig,
					Err:  fmt.Errorf("gpg-key is required"),
				}
			}

			s, err := newSigner(config)
			if err != nil {
				return err
			}

			key, err := s.GetPublicKey()
			if err != nil {
				return &models.ReposeError{Type: models.ErrSigning, Err: err}
			}
			_, err = cmd.OutOrStdout().Write(key)
			return err
		},
	}

	cmd.Flags().StringP("gpg-key", "k", "", "Path to GPG private key")
	cmd.Flags().StringP("gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}
