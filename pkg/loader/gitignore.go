// Package loader turns external data sources into entity documents.
// This file handles automatic .gitignore management for the export output
// directory.
package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// OutDir is the default destination for generated exports, relative to the
// project directory. Generated files are disposable, so the directory is
// kept out of version control.
const OutDir = ".treescope/out"

// EnsureOutIgnored ensures that the export output directory is listed in
// the project's .gitignore, so generated SVG/PNG/HTML files do not pollute
// the repository. The tree document and config under .treescope/ stay
// tracked.
//
// The function is idempotent and safe to call multiple times. It will:
//   - Create .gitignore if it doesn't exist
//   - Add ".treescope/out/" if no existing pattern already covers it
//   - Preserve existing file content and formatting
func EnsureOutIgnored(projectDir string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	alreadyPresent, err := isOutIgnored(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if alreadyPresent {
		return nil
	}

	return appendToGitignore(gitignorePath, ".treescope/out/")
}

// isOutIgnored checks whether the output directory is already covered by
// the .gitignore file.
func isOutIgnored(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesOutPattern(line) {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// matchesOutPattern checks if a gitignore line covers the export output
// directory, either directly or via the whole .treescope directory.
func matchesOutPattern(line string) bool {
	normalized := strings.TrimPrefix(line, "/")

	patterns := []string{
		".treescope",
		".treescope/",
		".treescope/*",
		".treescope/**",
		".treescope/out",
		".treescope/out/",
		".treescope/out/*",
		".treescope/out/**",
	}

	for _, pattern := range patterns {
		if normalized == pattern {
			return true
		}
	}

	return false
}

// appendToGitignore appends a pattern to the .gitignore file, creating it
// if needed and keeping a clean separation from existing content.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) == 0 {
		toWrite = "# treescope generated exports\n" + pattern + "\n"
	} else {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n# treescope generated exports\n" + pattern + "\n"
	}

	if _, err := file.WriteString(toWrite); err != nil {
		return err
	}

	return nil
}
