package model

// Path represents a file system path.
type Path string

// SourceFile represents a loaded text file with 1-based line addressing.
// Loaders normalize line endings before constructing it, so Lines never
// contain carriage returns.
type SourceFile struct {
	Origin Path
	Lines  []string
}

// LineCount returns the number of lines in the file.
func (f *SourceFile) LineCount() int {
	return len(f.Lines)
}

// Line returns line n (1-based), or the empty string when n is out of range.
func (f *SourceFile) Line(n int) string {
	if n < 1 || n > len(f.Lines) {
		return ""
	}

	return f.Lines[n-1]
}
