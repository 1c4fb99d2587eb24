package doctrail

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/n2code/doctrail/internal"
)

const homeScheme = "~" + string(filepath.Separator)

func (d *doctrail) displayablePath(absolutePath string) string {
	home, _ := os.UserHomeDir() //without home directory nothing is collapsed
	pleasant := pleasantPath(filepath.Clean(absolutePath), home, mustGetwd(), true, false)
	if strings.HasPrefix(pleasant, homeScheme) {
		pleasant = strings.Replace(pleasant, homeScheme, d.printer.Dim(homeScheme), 1)
	}
	return pleasant
}

const dot string = "."
const dirSeparator = string(filepath.Separator)
const dotDirSeparator = dot + dirSeparator
const doubleDot = dot + dot
const doubleDotDirSeparator = doubleDot + dirSeparator

func isChildOf(child string, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	internal.AssertNoError(err, "paths should both be nice and not of mixed nature")
	return !(rel == dot || rel == doubleDot || strings.HasPrefix(rel, doubleDotDirSeparator))
}

// pleasantPath turns an absolute path into something easily understandable from the current context.
// Files below the working directory are shown relative to it, with leading "./" to stress relativity (opt-out possible).
// Other files below the home directory are shown with the home directory abbreviated as "~" (opt-out possible).
// Everything else is reflected unchanged.
func pleasantPath(absolute string, home string, wd string, collapseHome bool, omitDotSlash bool) string {
	if isChildOf(absolute, wd) {
		relative, _ := filepath.Rel(wd, absolute) //error impossible because both are rooted
		if omitDotSlash {
			return relative
		}
		return dotDirSeparator + relative
	}
	if collapseHome && home != "" && isChildOf(absolute, home) {
		anchored, _ := filepath.Rel(home, absolute) //error impossible because both are rooted
		return homeScheme + anchored
	}
	return absolute
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

// mustAbsFilepath calls filepath.Abs and asserts that it is successful
func mustAbsFilepath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}
