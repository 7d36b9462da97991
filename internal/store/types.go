package store

import "time"

// File is one cached source file, keyed by path.
type File struct {
	ID           int64
	Path         string
	Language     string
	Hash         string
	LineCount    int
	LastAnalyzed time.Time
}

// Analysis kinds stored per file.
const (
	KindFull    = "full"
	KindImports = "imports"
)

// Entry is a pending cache write: the file row plus one serialized result.
type Entry struct {
	File File
	Kind string
	Data []byte
}

// Stats summarizes cache contents.
type Stats struct {
	Files    int
	Analyses int
}
