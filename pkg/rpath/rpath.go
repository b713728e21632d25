// Package rpath provides functionality for manipulating remote filesystem
// paths independently of the local OS. Remote paths are always Unix-style:
// absolute, forward-slash separated.
package rpath

import (
	"strings"
)

// Separator is the remote path separator
const Separator = '/'

// IsAbs reports whether the remote path is absolute.
func IsAbs(path string) bool {
	return len(path) > 0 && path[0] == Separator
}

// Canonicalize resolves path against cwd and returns its canonical form:
// absolute, cleaned of ".", ".." and redundant separators. It is a pure
// function of its inputs and performs no remote calls. cwd is expected to
// be an absolute path itself.
func Canonicalize(cwd, path string) string {
	if !IsAbs(path) {
		path = cwd + string(Separator) + path
	}
	return Clean(path)
}

// Join joins any number of remote path elements into a single cleaned path.
func Join(elem ...string) string {
	var parts []string
	for _, e := range elem {
		if e != "" {
			parts = append(parts, e)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return Clean(strings.Join(parts, string(Separator)))
}

// Dir returns all but the last element of path, typically its directory.
func Dir(path string) string {
	if path == "" {
		return "."
	}

	i := len(path) - 1
	for i >= 0 && path[i] != Separator {
		i--
	}

	if i < 0 {
		return "."
	}
	if i == 0 {
		return string(Separator)
	}

	return Clean(path[:i])
}

// Base returns the last element of path.
func Base(path string) string {
	if path == "" {
		return "."
	}

	// Strip trailing separators
	end := len(path)
	for end > 0 && path[end-1] == Separator {
		end--
	}
	if end == 0 {
		return string(Separator)
	}

	i := end - 1
	for i >= 0 && path[i] != Separator {
		i--
	}
	if i >= 0 {
		path = path[i+1 : end]
	} else {
		path = path[:end]
	}

	if path == "" {
		return string(Separator)
	}
	return path
}

// Clean returns the shortest path name equivalent to path: "." and empty
// components are dropped, ".." components consume their parent. A rooted
// path never climbs above "/"; a relative path keeps leading "..".
func Clean(path string) string {
	if path == "" {
		return "."
	}

	rooted := path[0] == Separator

	components := []string{}
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == Separator {
			component := path[start:i]

			switch component {
			case "", ".":
				// Skip this component
			case "..":
				if len(components) > 0 && components[len(components)-1] != ".." {
					components = components[:len(components)-1]
				} else if !rooted {
					components = append(components, "..")
				}
				// If rooted and can't go up, ignore the ".." component
			default:
				components = append(components, component)
			}

			start = i + 1
		}
	}

	if len(components) == 0 {
		if rooted {
			return string(Separator)
		}
		return "."
	}

	var result strings.Builder
	if rooted {
		result.WriteByte(Separator)
	}
	for i, component := range components {
		if i > 0 {
			result.WriteByte(Separator)
		}
		result.WriteString(component)
	}

	return result.String()
}
