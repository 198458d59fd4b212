package repo

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/signer"
	"github.com/ralt/repose/internal/utils"
)

// VerifyPackage checks that the archive of a database entry is still in the
// root and matches what the entry records. A detached signature is required
// when the entry carries one; it is checked against s when s is not nil.
func VerifyPackage(root string, pkg models.Package, s signer.Signer) error {
	path := filepath.Join(root, pkg.Filename)
	if pkg.Filename == "" || !utils.Exists(path) {
		return fmt.Errorf("couldn't find %s at %s", pkg.Name, path)
	}

	sigPath := path + ".sig"
	if pkg.Base64Sig != nil || utils.Exists(sigPath) {
		sig, err := os.ReadFile(sigPath)
		if err != nil {
			return fmt.Errorf("signature of %s: %w", pkg.Name, err)
		}
		if pkg.Base64Sig != nil && base64.StdEncoding.EncodeToString(sig) != *pkg.Base64Sig {
			return fmt.Errorf("signature of %s differs from the database", pkg.Name)
		}
		if s != nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := s.VerifyDetached(data, sig); err != nil {
				return fmt.Errorf("package %s: %w", pkg.Name, err)
			}
		}
	}

	checksums, err := utils.CalculateChecksums(path)
	if err != nil {
		return fmt.Errorf("failed to calculate checksums: %w", err)
	}
	if pkg.MD5Sum != "" && pkg.MD5Sum != checksums.MD5 {
		return fmt.Errorf("md5 sum for %s is different", pkg.Name)
	}
	if pkg.SHA256Sum != "" && pkg.SHA256Sum != checksums.SHA256 {
		return fmt.Errorf("sha256 sum for %s is different", pkg.Name)
	}
	if pkg.CSize != 0 && pkg.CSize != checksums.Size {
		return fmt.Errorf("size of %s is %d, database says %d", pkg.Name, checksums.Size, pkg.CSize)
	}

	return nil
}
