package rpath

import (
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		cwd      string
		path     string
		expected string
	}{
		{
			name:     "dotdot from nested cwd",
			cwd:      "/a/b",
			path:     "..",
			expected: "/a",
		},
		{
			name:     "absolute with dotdot",
			cwd:      "/a/b",
			path:     "/x/../y",
			expected: "/y",
		},
		{
			name:     "relative simple",
			cwd:      "/a",
			path:     "b/c",
			expected: "/a/b/c",
		},
		{
			name:     "dot resolves to cwd",
			cwd:      "/a/b",
			path:     ".",
			expected: "/a/b",
		},
		{
			name:     "dotdot past root clamps",
			cwd:      "/",
			path:     "../../x",
			expected: "/x",
		},
		{
			name:     "redundant separators",
			cwd:      "/",
			path:     "/a//b///c",
			expected: "/a/b/c",
		},
		{
			name:     "empty path is cwd",
			cwd:      "/a/b",
			path:     "",
			expected: "/a/b",
		},
		{
			name:     "trailing separator stripped",
			cwd:      "/",
			path:     "/a/b/",
			expected: "/a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(tt.cwd, tt.path)
			if got != tt.expected {
				t.Errorf("Canonicalize(%q, %q) = %q, want %q", tt.cwd, tt.path, got, tt.expected)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	paths := []string{"/", "/a", "/a/b/c", "/with space/x"}
	for _, p := range paths {
		once := Canonicalize("/", p)
		twice := Canonicalize("/", once)
		if once != twice {
			t.Errorf("Canonicalize not idempotent for %q: %q vs %q", p, once, twice)
		}
		if once != p {
			t.Errorf("already-canonical path %q changed to %q", p, once)
		}
	}
}

func TestBase(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/a/b/c", "c"},
		{"/a/b/", "b"},
		{"/", "/"},
		{"name", "name"},
		{"", "."},
	}
	for _, tt := range tests {
		if got := Base(tt.path); got != tt.expected {
			t.Errorf("Base(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestDir(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/a/b/c", "/a/b"},
		{"/a", "/"},
		{"/", "/"},
		{"name", "."},
	}
	for _, tt := range tests {
		if got := Dir(tt.path); got != tt.expected {
			t.Errorf("Dir(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		elem     []string
		expected string
	}{
		{[]string{"/a", "b"}, "/a/b"},
		{[]string{"/", "x"}, "/x"},
		{[]string{"/a/b", "../c"}, "/a/c"},
		{[]string{"", ""}, ""},
	}
	for _, tt := range tests {
		if got := Join(tt.elem...); got != tt.expected {
			t.Errorf("Join(%v) = %q, want %q", tt.elem, got, tt.expected)
		}
	}
}
