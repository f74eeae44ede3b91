package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd walks up from the working directory looking for the project root.
// go-test runs each test package in its own directory, so relative paths
// (config files, templates) need an anchor.
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	const root = "shule"
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	for dir := wd; ; {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() && filepath.Base(dir) == root {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir || parent == string(os.PathSeparator) {
			return wd
		}
		dir = parent
	}
}
