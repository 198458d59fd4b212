package repo

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ralt/repose/internal/models"
)

// descWriter accumulates %FIELD% blocks; empty fields are skipped
type descWriter struct {
	buf bytes.Buffer
}

func (w *descWriter) string(name, value string) {
	if value != "" {
		fmt.Fprintf(&w.buf, "%%%s%%\n%s\n\n", name, value)
	}
}

func (w *descWriter) long(name string, value int64) {
	if value != 0 {
		w.string(name, strconv.FormatInt(value, 10))
	}
}

func (w *descWriter) list(name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(&w.buf, "%%%s%%\n", name)
	for _, v := range values {
		w.buf.WriteString(v)
		w.buf.WriteByte('\n')
	}
	w.buf.WriteByte('\n')
}

// WriteDesc renders the desc entry of a package
func WriteDesc(pkg *models.Package) []byte {
	var w descWriter

	w.string("FILENAME", pkg.Filename)
	w.string("NAME", pkg.Name)
	if pkg.Base != nil {
		w.string("BASE", *pkg.Base)
	}
	w.string("VERSION", pkg.Version)
	w.string("DESC", pkg.Description)
	w.list("GROUPS", pkg.Groups)
	w.long("CSIZE", pkg.CSize)
	w.long("ISIZE", pkg.Size)
	w.string("MD5SUM", pkg.MD5Sum)
	w.string("SHA256SUM", pkg.SHA256Sum)
	if pkg.Base64Sig != nil {
		w.string("PGPSIG", *pkg.Base64Sig)
	}
	w.string("URL", pkg.URL)
	w.list("LICENSE", pkg.Licenses)
	w.string("ARCH", pkg.Architecture)
	w.long("BUILDDATE", pkg.BuildDate)
	w.string("PACKAGER", pkg.Packager)
	w.list("REPLACES", pkg.Replaces)
	w.list("CONFLICTS", pkg.Conflicts)
	w.list("PROVIDES", pkg.Provides)
	w.list("DEPENDS", pkg.Depends)
	w.list("OPTDEPENDS", pkg.OptDepends)
	w.list("MAKEDEPENDS", pkg.MakeDepends)
	w.list("CHECKDEPENDS", pkg.CheckDepends)
	w.list("XDATA", pkg.XData)

	return w.buf.Bytes()
}

// WriteFiles renders the files entry of a package
func WriteFiles(pkg *models.Package) []byte {
	var w descWriter
	w.list("FILES", pkg.Files)
	return w.buf.Bytes()
}

// parseDesc applies a desc or files entry to pkg
func parseDesc(pkg *models.Package, data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentField string

	for scanner.Scan() {
		line := scanner.Text()

		// Field marker: %FIELDNAME%
		if currentField == "" && len(line) > 1 && strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") {
			currentField = strings.Trim(line, "%")
			continue
		}

		if line == "" {
			currentField = ""
			continue
		}

		if err := applyDescValue(pkg, currentField, line); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func applyDescValue(pkg *models.Package, field, value string) error {
	parseLong := func() (int64, error) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %%%s%% value %q: %w", field, value, err)
		}
		return n, nil
	}

	var err error
	switch field {
	case "FILENAME":
		pkg.Filename = value
	case "NAME":
		pkg.Name = value
	case "BASE":
		pkg.Base = &value
	case "VERSION":
		pkg.Version = value
	case "DESC":
		pkg.Description = value
	case "CSIZE":
		pkg.CSize, err = parseLong()
	case "ISIZE":
		pkg.Size, err = parseLong()
	case "MD5SUM":
		pkg.MD5Sum = value
	case "SHA256SUM":
		pkg.SHA256Sum = value
	case "PGPSIG":
		pkg.Base64Sig = &value
	case "URL":
		pkg.URL = value
	case "ARCH":
		pkg.Architecture = value
	case "BUILDDATE":
		pkg.BuildDate, err = parseLong()
	case "PACKAGER":
		pkg.Packager = value
	case "GROUPS":
		pkg.Groups = append(pkg.Groups, value)
	case "LICENSE":
		pkg.Licenses = append(pkg.Licenses, value)
	case "REPLACES":
		pkg.Replaces = append(pkg.Replaces, value)
	case "CONFLICTS":
		pkg.Conflicts = append(pkg.Conflicts, value)
	case "PROVIDES":
		pkg.Provides = append(pkg.Provides, value)
	case "DEPENDS":
		pkg.Depends = append(pkg.Depends, value)
	case "OPTDEPENDS":
		pkg.OptDepends = append(pkg.OptDepends, value)
	case "MAKEDEPENDS":
		pkg.MakeDepends = append(pkg.MakeDepends, value)
	case "CHECKDEPENDS":
		pkg.CheckDepends = append(pkg.CheckDepends, value)
	case "XDATA":
		pkg.XData = append(pkg.XData, value)
	case "FILES":
		pkg.Files = append(pkg.Files, value)
	}
	// fields written by newer repo-add versions are ignored
	return err
}
