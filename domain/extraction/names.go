package extraction

import "github.com/gobwas/glob"

var (
	archiveMatcher        = glob.MustCompile(ArchiveGlob)
	partialArchiveMatcher = glob.MustCompile(PartialArchiveGlob)
)

// IsArchive reports whether a file name looks like a finished frame archive
func IsArchive(name string) bool {
	return archiveMatcher.Match(name)
}

// IsPartialArchive reports whether a file name is an archive left half-written by a crash
func IsPartialArchive(name string) bool {
	return partialArchiveMatcher.Match(name)
}
