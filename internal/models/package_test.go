package models

import (
	"testing"
	"time"
)

func TestBuildDateIn(t *testing.T) {
	pkg := Package{BuildDate: 1477843787}

	if got := pkg.BuildDateIn(time.UTC); got != "Oct 30, 2016, 16:09:47" {
		t.Errorf("BuildDateIn(UTC) = %q", got)
	}

	tokyo := time.FixedZone("JST", 9*60*60)
	if got := pkg.BuildDateIn(tokyo); got != "Oct 31, 2016, 01:09:47" {
		t.Errorf("BuildDateIn(JST) = %q", got)
	}
}

func TestBaseName(t *testing.T) {
	pkg := Package{Name: "repose-git"}
	if got := pkg.BaseName(); got != "repose-git" {
		t.Errorf("BaseName() = %q, want name fallback", got)
	}

	base := "repose"
	pkg.Base = &base
	if got := pkg.BaseName(); got != "repose" {
		t.Errorf("BaseName() = %q, want pkgbase", got)
	}
}

func TestReposeErrorUnwrap(t *testing.T) {
	inner := &ReposeError{Type: ErrFileOp, Err: errTest}
	wrapped := &ReposeError{Type: ErrPackageParse, Package: "foo.pkg.tar.zst", Err: inner}

	if wrapped.Unwrap() != inner {
		t.Error("Unwrap did not return wrapped error")
	}
	if got := wrapped.Error(); got != "[PackageParse] foo.pkg.tar.zst: [FileOp] boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := map[ErrorType]string{
		ErrPackageParse:  "PackageParse",
		ErrDatabase:      "Database",
		ErrVerify:        "Verify",
		ErrorType(99):    "Unknown",
		ErrInvalidConfig: "InvalidConfig",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", typ, got, want)
		}
	}
}

type testError string

func (e testError) Error() string { return string(e) }

var errTest = testError("boom")
