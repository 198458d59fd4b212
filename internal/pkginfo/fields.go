package pkginfo

import "github.com/ralt/repose/internal/models"

// FieldKind identifies which .PKGINFO field a line was classified as
type FieldKind int

const (
	KindNone FieldKind = iota
	KindName
	KindBase
	KindVersion
	KindDescription
	KindURL
	KindBuildDate
	KindPackager
	KindSize
	KindArch
	KindLicense
	KindReplaces
	KindGroup
	KindDepend
	KindOptDepend
	KindMakeDepend
	KindCheckDepend
	KindConflict
	KindProvides
	KindBackup
	KindMakepkgOpt
	KindBase64Sig
	KindXData
)

var kindNames = [...]string{
	KindNone:        "none",
	KindName:        "pkgname",
	KindBase:        "pkgbase",
	KindVersion:     "pkgver",
	KindDescription: "pkgdesc",
	KindURL:         "url",
	KindBuildDate:   "builddate",
	KindPackager:    "packager",
	KindSize:        "size",
	KindArch:        "arch",
	KindLicense:     "license",
	KindReplaces:    "replaces",
	KindGroup:       "group",
	KindDepend:      "depend",
	KindOptDepend:   "optdepend",
	KindMakeDepend:  "makedepend",
	KindCheckDepend: "checkdepend",
	KindConflict:    "conflict",
	KindProvides:    "provides",
	KindBackup:      "backup",
	KindMakepkgOpt:  "makepkgopt",
	KindBase64Sig:   "pgpsig",
	KindXData:       "xdata",
}

// String returns the .PKGINFO key for the kind
func (k FieldKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Policy is how repeated occurrences of a key are stored
type Policy int

const (
	// Scalar fields keep the most recent value
	Scalar Policy = iota
	// List fields append every value in input order
	List
)

// Conversion is the typed conversion applied to a raw value
type Conversion int

const (
	ConvString Conversion = iota
	ConvInteger
	ConvTimestamp
)

// Field describes one entry of the vocabulary. Exactly one of the target
// accessors is set, matching Policy and Conversion.
type Field struct {
	Kind       FieldKind
	Policy     Policy
	Conversion Conversion

	setString func(*models.Package, string)
	setInt    func(*models.Package, int64)
	list      func(*models.Package) *[]string
}

// Vocabulary maps .PKGINFO keys to their field description
type Vocabulary map[string]Field

func str(kind FieldKind, set func(*models.Package, string)) Field {
	return Field{Kind: kind, Policy: Scalar, Conversion: ConvString, setString: set}
}

func num(kind FieldKind, conv Conversion, set func(*models.Package, int64)) Field {
	return Field{Kind: kind, Policy: Scalar, Conversion: conv, setInt: set}
}

func list(kind FieldKind, target func(*models.Package) *[]string) Field {
	return Field{Kind: kind, Policy: List, Conversion: ConvString, list: target}
}

// DefaultVocabulary returns the keys written by makepkg into .PKGINFO
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"pkgname":  str(KindName, func(p *models.Package, v string) { p.Name = v }),
		"pkgbase":  str(KindBase, func(p *models.Package, v string) { p.Base = &v }),
		"pkgver":   str(KindVersion, func(p *models.Package, v string) { p.Version = v }),
		"pkgdesc":  str(KindDescription, func(p *models.Package, v string) { p.Description = v }),
		"url":      str(KindURL, func(p *models.Package, v string) { p.URL = v }),
		"arch":     str(KindArch, func(p *models.Package, v string) { p.Architecture = v }),
		"packager": str(KindPackager, func(p *models.Package, v string) { p.Packager = v }),
		// pgpsig is never written by makepkg; it mirrors the %PGPSIG% db field
		"pgpsig": str(KindBase64Sig, func(p *models.Package, v string) { p.Base64Sig = &v }),

		"size":      num(KindSize, ConvInteger, func(p *models.Package, v int64) { p.Size = v }),
		"builddate": num(KindBuildDate, ConvTimestamp, func(p *models.Package, v int64) { p.BuildDate = v }),

		"license":     list(KindLicense, func(p *models.Package) *[]string { return &p.Licenses }),
		"replaces":    list(KindReplaces, func(p *models.Package) *[]string { return &p.Replaces }),
		"group":       list(KindGroup, func(p *models.Package) *[]string { return &p.Groups }),
		"depend":      list(KindDepend, func(p *models.Package) *[]string { return &p.Depends }),
		"optdepend":   list(KindOptDepend, func(p *models.Package) *[]string { return &p.OptDepends }),
		"makedepend":  list(KindMakeDepend, func(p *models.Package) *[]string { return &p.MakeDepends }),
		"checkdepend": list(KindCheckDepend, func(p *models.Package) *[]string { return &p.CheckDepends }),
		"conflict":    list(KindConflict, func(p *models.Package) *[]string { return &p.Conflicts }),
		"provides":    list(KindProvides, func(p *models.Package) *[]string { return &p.Provides }),
		"backup":      list(KindBackup, func(p *models.Package) *[]string { return &p.Backup }),
		"makepkgopt":  list(KindMakepkgOpt, func(p *models.Package) *[]string { return &p.MakepkgOpts }),
		"xdata":       list(KindXData, func(p *models.Package) *[]string { return &p.XData }),
	}
}

var defaultVocabulary = DefaultVocabulary()
