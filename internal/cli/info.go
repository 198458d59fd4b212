package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/pkgfile"
	"github.com/ralt/repose/internal/pkginfo"
	"github.com/ralt/repose/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewInfoCmd creates the info command
func NewInfoCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <package|.PKGINFO>...",
		Short: "Show package metadata",
		Long: `Parses package archives or bare .PKGINFO files and prints the
metadata they declare.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := time.Local
			if v.GetBool("utc") {
				loc = time.UTC
			}

			for i, path := range args {
				pkg, err := loadInfo(path, v.GetInt("chunk-size"))
				if err != nil {
					return &models.ReposeError{Type: models.ErrPackageParse, Package: path, Err: err}
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				printPackage(cmd.OutOrStdout(), pkg, loc)
			}
			return nil
		},
	}

	cmd.Flags().Int("chunk-size", 4096, "Bytes fed to the parser per call when reading .PKGINFO files")
	cmd.Flags().Bool("utc", false, "Render dates in UTC instead of local time")

	return cmd
}

func loadInfo(path string, chunkSize int) (*models.Package, error) {
	isPkg, err := scanner.IsPackage(path)
	if err != nil {
		return nil, err
	}
	if isPkg {
		return pkgfile.Load(path, scanner.SignaturePath(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return feedFile(f, chunkSize)
}

// feedFile drives the parser with fixed-size reads
func feedFile(r io.Reader, chunkSize int) (*models.Package, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	pkg := &models.Package{}
	p := pkginfo.NewParser()
	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := p.Feed(pkg, buf[:n]); ferr != nil {
				return nil, ferr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if p.Pending() {
		logrus.Debug("Final .PKGINFO line has no trailing newline")
	}
	if err := p.Close(pkg); err != nil {
		return nil, err
	}

	logrus.Debugf("Parsed %s, last field %s", pkg.Name, p.LastKind())
	return pkg, nil
}

func printPackage(w io.Writer, pkg *models.Package, loc *time.Location) {
	field := func(name, value string) {
		if value == "" {
			value = "None"
		}
		fmt.Fprintf(w, "%-16s: %s\n", name, value)
	}
	list := func(name string, values []string) {
		field(name, strings.Join(values, "  "))
	}

	field("Name", pkg.Name)
	if pkg.Base != nil {
		field("Base", *pkg.Base)
	}
	field("Version", pkg.Version)
	field("Description", pkg.Description)
	field("Architecture", pkg.Architecture)
	field("URL", pkg.URL)
	list("Licenses", pkg.Licenses)
	list("Groups", pkg.Groups)
	list("Provides", pkg.Provides)
	list("Depends On", pkg.Depends)
	list("Optional Deps", pkg.OptDepends)
	list("Make Deps", pkg.MakeDepends)
	list("Check Deps", pkg.CheckDepends)
	list("Conflicts With", pkg.Conflicts)
	list("Replaces", pkg.Replaces)
	list("Backup Files", pkg.Backup)
	if pkg.CSize > 0 {
		field("Download Size", humanize.IBytes(uint64(pkg.CSize)))
	}
	field("Installed Size", humanize.IBytes(uint64(pkg.Size)))
	field("Packager", pkg.Packager)
	if pkg.BuildDate != 0 {
		field("Build Date", pkg.BuildDateIn(loc))
	} else {
		field("Build Date", "")
	}
	if pkg.SHA256Sum != "" {
		field("SHA-256 Sum", pkg.SHA256Sum)
	}
	if pkg.Base64Sig != nil {
		field("Signature", "Yes")
	}
}
