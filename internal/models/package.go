package models

import "time"

// BuildDateLayout is how build timestamps are rendered for display
const BuildDateLayout = "Jan 2, 2006, 15:04:05"

// Package represents a pacman package with its .PKGINFO metadata
type Package struct {
	// Scalar metadata. Base and Base64Sig stay nil until a line sets them.
	Base         *string
	Base64Sig    *string
	Name         string
	Version      string
	Description  string
	URL          string
	Architecture string
	Packager     string
	Size         int64 // installed size
	BuildDate    int64 // epoch seconds

	// List metadata, in the order the keys appeared
	Licenses     []string
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Conflicts    []string
	Provides     []string
	Replaces     []string
	Groups       []string
	Backup       []string
	MakepkgOpts  []string
	XData        []string // key=value extension data, e.g. pkgtype=pkg

	// Archive information, filled by the package loader
	Filename  string
	CSize     int64
	MD5Sum    string
	SHA256Sum string
	Files     []string
}

// BuildDateIn renders the build timestamp in the given location
func (p *Package) BuildDateIn(loc *time.Location) string {
	return time.Unix(p.BuildDate, 0).In(loc).Format(BuildDateLayout)
}

// BaseName returns pkgbase, falling back to the package name
func (p *Package) BaseName() string {
	if p.Base != nil {
		return *p.Base
	}
	return p.Name
}
