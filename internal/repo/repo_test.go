package repo

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralt/repose/internal/models"
	"github.com/ralt/repose/internal/signer"
	"github.com/ralt/repose/internal/utils"
)

func testPackage() models.Package {
	base := "test-base"
	sig := "iQEz"
	return models.Package{
		Base:         &base,
		Base64Sig:    &sig,
		Name:         "test-package",
		Version:      "1.0.0-1",
		Architecture: "x86_64",
		Description:  "Test package description",
		Packager:     "Test Maintainer <test@example.com>",
		URL:          "https://example.com",
		Licenses:     []string{"MIT", "GPL"},
		Filename:     "test-package-1.0.0-1-x86_64.pkg.tar.zst",
		CSize:        12345,
		Size:         54321,
		BuildDate:    1234567890,
		MD5Sum:       "abc123",
		SHA256Sum:    "def456",
		Depends:      []string{"dep1", "dep2>=1.0"},
		MakeDepends:  []string{"git"},
		XData:        []string{"pkgtype=pkg"},
		Files:        []string{"usr/", "usr/bin/test"},
	}
}

func TestWriteDesc(t *testing.T) {
	pkg := testPackage()
	desc := string(WriteDesc(&pkg))

	requiredFields := map[string]string{
		"%FILENAME%":  "test-package-1.0.0-1-x86_64.pkg.tar.zst",
		"%NAME%":      "test-package",
		"%BASE%":      "test-base",
		"%VERSION%":   "1.0.0-1",
		"%DESC%":      "Test package description",
		"%CSIZE%":     "12345",
		"%ISIZE%":     "54321",
		"%MD5SUM%":    "abc123",
		"%SHA256SUM%": "def456",
		"%PGPSIG%":    "iQEz",
		"%ARCH%":      "x86_64",
		"%BUILDDATE%": "1234567890",
		"%PACKAGER%":  "Test Maintainer <test@example.com>",
		"%URL%":       "https://example.com",
	}

	for field, value := range requiredFields {
		assert.Contains(t, desc, field+"\n"+value+"\n\n")
	}

	assert.Contains(t, desc, "%LICENSE%\nMIT\nGPL\n\n")
	assert.Contains(t, desc, "%DEPENDS%\ndep1\ndep2>=1.0\n\n")
	assert.Contains(t, desc, "%MAKEDEPENDS%\ngit\n\n")
	assert.Contains(t, desc, "%XDATA%\npkgtype=pkg\n\n")
	assert.NotContains(t, desc, "%CONFLICTS%")
	assert.NotContains(t, desc, "%FILES%")
}

func TestWriteFiles(t *testing.T) {
	pkg := testPackage()
	assert.Equal(t, "%FILES%\nusr/\nusr/bin/test\n\n", string(WriteFiles(&pkg)))
}

func TestBuildAndRead(t *testing.T) {
	second := models.Package{Name: "pkg2", Version: "2.0-1", Architecture: "any", Filename: "pkg2-2.0-1-any.pkg.tar.zst"}
	packages := []models.Package{testPackage(), second}

	for _, format := range []models.Compression{models.CompressZstd, models.CompressGzip} {
		data, err := Build(packages, ContentsDesc|ContentsFiles, format, time.Unix(0, 0))
		require.NoError(t, err)

		got, err := Read(bytes.NewReader(data))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, packages[0], got[0])
		assert.Equal(t, "pkg2", got[1].Name)
		assert.Nil(t, got[1].Base)
	}
}

func TestBuildDescOnly(t *testing.T) {
	data, err := Build([]models.Package{testPackage()}, ContentsDesc, models.CompressNone, time.Unix(0, 0))
	require.NoError(t, err)

	assert.Contains(t, string(data), "test-package-1.0.0-1/desc")
	assert.NotContains(t, string(data), "test-package-1.0.0-1/files")

	got, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Files)
}

func TestParseDesc(t *testing.T) {
	pkg := &models.Package{}
	err := parseDesc(pkg, []byte("%NAME%\nfoo\n\n%DEPENDS%\nbar\n%baz%\n\n%UNKNOWN%\nx\n\n"))
	require.NoError(t, err)

	assert.Equal(t, "foo", pkg.Name)
	assert.Equal(t, []string{"bar", "%baz%"}, pkg.Depends)

	err = parseDesc(&models.Package{}, []byte("%ISIZE%\nlots\n\n"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	existing := []models.Package{
		{Name: "b", Version: "1", BuildDate: 100},
		{Name: "a", Version: "1", BuildDate: 100},
		{Name: "c", Version: "2", BuildDate: 300},
	}
	incoming := []models.Package{
		{Name: "a", Version: "2", BuildDate: 200},
		{Name: "c", Version: "1", BuildDate: 100},
		{Name: "d", Version: "1", BuildDate: 100},
	}

	merged, superseded := Merge(existing, incoming)

	var got []string
	for _, pkg := range merged {
		got = append(got, pkg.Name+"-"+pkg.Version)
	}
	assert.Equal(t, []string{"a-2", "b-1", "c-2", "d-1"}, got)
	assert.Empty(t, superseded)
}

func TestMergeRefusesDowngrade(t *testing.T) {
	existing := []models.Package{{Name: "foo", Version: "2.0-1", BuildDate: 100, Filename: "foo-2.0-1-x86_64.pkg.tar.zst"}}
	incoming := []models.Package{{Name: "foo", Version: "1.0-1", BuildDate: 200, Filename: "foo-1.0-1-x86_64.pkg.tar.zst"}}

	merged, superseded := Merge(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, "2.0-1", merged[0].Version)
	assert.Empty(t, superseded)
}

func TestMergeSameVersion(t *testing.T) {
	sig := "iQEz"
	old := models.Package{Name: "foo", Version: "1.0-1", BuildDate: 200, Filename: "foo-1.0-1-x86_64.pkg.tar.zst"}

	tests := []struct {
		name       string
		incoming   models.Package
		replaced   bool
		superseded int
	}{
		{"newer build", models.Package{Name: "foo", Version: "1.0-1", BuildDate: 300, Filename: "foo-1.0-1-any.pkg.tar.zst"}, true, 1},
		{"older build", models.Package{Name: "foo", Version: "1.0-1", BuildDate: 100, Filename: "foo-1.0-1-any.pkg.tar.zst"}, false, 0},
		{"same build", models.Package{Name: "foo", Version: "1.0-1", BuildDate: 200, Description: "rescanned"}, false, 0},
		{"signature added", models.Package{Name: "foo", Version: "1.0-1", BuildDate: 200, Base64Sig: &sig, Filename: old.Filename}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, superseded := Merge([]models.Package{old}, []models.Package{tt.incoming})
			require.Len(t, merged, 1)
			if tt.replaced {
				assert.Equal(t, tt.incoming, merged[0])
			} else {
				assert.Equal(t, old, merged[0])
			}
			assert.Len(t, superseded, tt.superseded)
		})
	}
}

func TestMergeReportsSuperseded(t *testing.T) {
	existing := []models.Package{{Name: "foo", Version: "1.0-1", Filename: "foo-1.0-1-x86_64.pkg.tar.zst"}}
	incoming := []models.Package{{Name: "foo", Version: "1:0.9-1", Filename: "foo-1:0.9-1-x86_64.pkg.tar.zst"}}

	merged, superseded := Merge(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, "1:0.9-1", merged[0].Version)
	assert.Equal(t, existing, superseded)
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0-1", "1.0-1", 0},
		{"1.0-1", "1.0-2", -1},
		{"1.0-2", "1.0-1", 1},
		{"2.0-1", "1.0-9", 1},
		{"1.0", "1.0-5", 0},
		{"1:1.0-1", "2.0-1", 1},
		{"0:1.0-1", "1.0-1", 0},
		{"1.0rc1-1", "1.0-1", -1},
		{"1.0a", "1.0", -1},
		{"1.0", "1.0.1", -1},
		{"1.0.a", "1.0", 1},
		{"1.0.1", "1.0a", 1},
		{"1.10", "1.9", 1},
		{"1.010", "1.10", 0},
		{"1..0", "1.0", 1},
		{"6.2.10.gbab93f3-1", "6.2.9.g0000000-1", 1},
		{"alpha", "beta", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, VersionCompare(tt.a, tt.b))
			assert.Equal(t, -tt.want, VersionCompare(tt.b, tt.a))
		})
	}
}

func TestRemove(t *testing.T) {
	packages := []models.Package{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	kept, removed, missing := Remove(packages, []string{"b", "z"})
	assert.Equal(t, []models.Package{{Name: "a"}, {Name: "c"}}, kept)
	assert.Equal(t, []models.Package{{Name: "b"}}, removed)
	assert.Equal(t, []string{"z"}, missing)
}

func TestClean(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a-1-1-any.pkg.tar.zst", "a-1-1-any.pkg.tar.zst.sig", "b-1-1-any.pkg.tar.zst"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0644))
	}

	err := Clean(root, []models.Package{{Name: "a", Filename: "a-1-1-any.pkg.tar.zst"}, {Name: "gone", Filename: "gone-1-1-any.pkg.tar.zst"}})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "a-1-1-any.pkg.tar.zst"))
	assert.NoFileExists(t, filepath.Join(root, "a-1-1-any.pkg.tar.zst.sig"))
	assert.FileExists(t, filepath.Join(root, "b-1-1-any.pkg.tar.zst"))
}

func TestGenerateUnsigned(t *testing.T) {
	tmpDir := t.TempDir()

	config := &models.RepositoryConfig{
		Root:        tmpDir,
		RepoName:    "Test Repo",
		Compression: models.CompressZstd,
		Files:       true,
	}

	err := NewGenerator(nil).Generate(context.Background(), config, []models.Package{testPackage()})
	require.NoError(t, err)

	for _, name := range []string{"test-repo.db.tar.zst", "test-repo.db", "test-repo.files.tar.zst", "test-repo.files"} {
		assert.FileExists(t, filepath.Join(tmpDir, name))
	}
	assert.NoFileExists(t, filepath.Join(tmpDir, "test-repo.db.tar.zst.sig"))

	dbTar, err := os.ReadFile(filepath.Join(tmpDir, "test-repo.db.tar.zst"))
	require.NoError(t, err)
	db, err := os.ReadFile(filepath.Join(tmpDir, "test-repo.db"))
	require.NoError(t, err)
	assert.Equal(t, dbTar, db)

	got, err := ReadFile(filepath.Join(tmpDir, "test-repo.files"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"usr/", "usr/bin/test"}, got[0].Files)
}

func TestGenerateSigned(t *testing.T) {
	tmpDir := t.TempDir()

	entity, err := openpgp.NewEntity("repose test", "", "test@example.com", &packet.Config{RSABits: 2048})
	require.NoError(t, err)
	s := signer.NewGPGSignerFromEntity(entity)

	config := &models.RepositoryConfig{
		Root:        tmpDir,
		RepoName:    "signed",
		Compression: models.CompressXZ,
	}

	require.NoError(t, NewGenerator(s).Generate(context.Background(), config, []models.Package{testPackage()}))

	dbPath := filepath.Join(tmpDir, "signed.db.tar.xz")
	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	sig, err := os.ReadFile(dbPath + ".sig")
	require.NoError(t, err)
	assert.NoError(t, s.VerifyDetached(data, sig))
	assert.FileExists(t, filepath.Join(tmpDir, "signed.db.sig"))
	assert.NoFileExists(t, filepath.Join(tmpDir, "signed.files.tar.xz"))
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := &models.RepositoryConfig{Root: t.TempDir(), RepoName: "x", Compression: models.CompressNone}
	assert.Error(t, NewGenerator(nil).Generate(ctx, config, nil))
}

func TestSanitizeRepoName(t *testing.T) {
	assert.Equal(t, "my-repo", SanitizeRepoName("My Repo"))
	assert.Equal(t, "core_testing", SanitizeRepoName("core_testing"))
	assert.Equal(t, "a-b", SanitizeRepoName("a/b"))
}

func TestValidatePackages(t *testing.T) {
	validPkg := models.Package{
		Name:         "valid-pkg",
		Version:      "1.0-1",
		Architecture: "x86_64",
		Filename:     "valid-pkg-1.0-1-x86_64.pkg.tar.zst",
	}

	assert.NoError(t, ValidatePackages([]models.Package{validPkg}))

	mutations := map[string]func(*models.Package){
		"missing name":         func(p *models.Package) { p.Name = "" },
		"missing version":      func(p *models.Package) { p.Version = "" },
		"missing architecture": func(p *models.Package) { p.Architecture = "" },
		"invalid filename":     func(p *models.Package) { p.Filename = "invalid.tar.gz" },
	}

	for name, mutate := range mutations {
		invalid := validPkg
		mutate(&invalid)
		assert.Error(t, ValidatePackages([]models.Package{invalid}), name)
	}
}

func writeArchive(t *testing.T, root, name string, data []byte) models.Package {
	t.Helper()

	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	sums, err := utils.CalculateChecksums(path)
	require.NoError(t, err)

	return models.Package{
		Name:      "foo",
		Filename:  name,
		CSize:     sums.Size,
		MD5Sum:    sums.MD5,
		SHA256Sum: sums.SHA256,
	}
}

func TestVerifyPackage(t *testing.T) {
	root := t.TempDir()
	pkg := writeArchive(t, root, "foo-1-1-any.pkg.tar.zst", []byte("archive"))

	assert.NoError(t, VerifyPackage(root, pkg, nil))

	missing := pkg
	missing.Filename = "gone-1-1-any.pkg.tar.zst"
	assert.ErrorContains(t, VerifyPackage(root, missing, nil), "couldn't find")

	require.NoError(t, os.WriteFile(filepath.Join(root, pkg.Filename), []byte("tampered"), 0644))
	assert.ErrorContains(t, VerifyPackage(root, pkg, nil), "md5 sum")

	pkg.MD5Sum = ""
	assert.ErrorContains(t, VerifyPackage(root, pkg, nil), "sha256 sum")
}

func TestVerifyPackageSignature(t *testing.T) {
	root := t.TempDir()
	data := []byte("archive")
	pkg := writeArchive(t, root, "foo-1-1-any.pkg.tar.zst", data)

	entity, err := openpgp.NewEntity("repose test", "", "test@example.com", &packet.Config{RSABits: 2048})
	require.NoError(t, err)
	s := signer.NewGPGSignerFromEntity(entity)

	sig, err := s.SignDetached(data)
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(sig)
	pkg.Base64Sig = &encoded

	// recorded but absent
	assert.ErrorContains(t, VerifyPackage(root, pkg, s), "signature of foo")

	sigPath := filepath.Join(root, pkg.Filename+".sig")
	require.NoError(t, os.WriteFile(sigPath, sig, 0644))
	assert.NoError(t, VerifyPackage(root, pkg, s))
	assert.NoError(t, VerifyPackage(root, pkg, nil))

	other, err := openpgp.NewEntity("someone else", "", "else@example.com", &packet.Config{RSABits: 2048})
	require.NoError(t, err)
	assert.Error(t, VerifyPackage(root, pkg, signer.NewGPGSignerFromEntity(other)))

	require.NoError(t, os.WriteFile(sigPath, []byte("junk"), 0644))
	assert.ErrorContains(t, VerifyPackage(root, pkg, nil), "differs from the database")
}
