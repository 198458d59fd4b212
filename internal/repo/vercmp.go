package repo

import "strings"

// VersionCompare orders two pacman versions of the form
// [epoch:]pkgver[-pkgrel]. It returns -1, 0 or 1. The release is only
// compared when both versions carry one.
func VersionCompare(a, b string) int {
	if a == b {
		return 0
	}

	epochA, verA, relA := splitVersion(a)
	epochB, verB, relB := splitVersion(b)

	if c := segmentCompare(epochA, epochB); c != 0 {
		return c
	}
	if c := segmentCompare(verA, verB); c != 0 {
		return c
	}
	if relA != "" && relB != "" {
		return segmentCompare(relA, relB)
	}
	return 0
}

func splitVersion(evr string) (epoch, version, release string) {
	epoch = "0"
	version = evr

	i := 0
	for i < len(version) && isDigit(version[i]) {
		i++
	}
	if i < len(version) && version[i] == ':' {
		if i > 0 {
			epoch = version[:i]
		}
		version = version[i+1:]
	}

	if j := strings.LastIndexByte(version, '-'); j >= 0 {
		release = version[j+1:]
		version = version[:j]
	}
	return epoch, version, release
}

// segmentCompare walks alternating numeric and alphabetic runs. Unlike rpm,
// a trailing alphabetic run sorts before the end of the string, so 1.0rc1
// is older than 1.0.
func segmentCompare(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		si, sj := i, j
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i == len(a) || j == len(b) {
			break
		}

		// differing separator runs decide on their own
		if i-si != j-sj {
			if i-si < j-sj {
				return -1
			}
			return 1
		}

		ei, ej := i, j
		numeric := isDigit(a[i])
		if numeric {
			for ei < len(a) && isDigit(a[ei]) {
				ei++
			}
			for ej < len(b) && isDigit(b[ej]) {
				ej++
			}
		} else {
			for ei < len(a) && isAlpha(a[ei]) {
				ei++
			}
			for ej < len(b) && isAlpha(b[ej]) {
				ej++
			}
		}

		// numeric segments beat alphabetic ones
		if ej == j {
			if numeric {
				return 1
			}
			return -1
		}

		segA, segB := a[i:ei], b[j:ej]
		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) < len(segB) {
					return -1
				}
				return 1
			}
		}
		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}

		i, j = ei, ej
	}

	restA, restB := a[i:], b[j:]
	if restA == "" && restB == "" {
		return 0
	}
	if (restA == "" && !isAlpha(restB[0])) || (restA != "" && isAlpha(restA[0])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
