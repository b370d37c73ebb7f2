package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"frame-archiver/domain/extraction"
)

// ZipArchiver implements extraction.Archiver by writing a flat, deflate-compressed zip
type ZipArchiver struct{}

// NewZipArchiver creates a new ZipArchiver
func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{}
}

// Archive writes every regular file directly inside sourceDir into archivePath, then
// removes sourceDir. The archive is written to a temporary file next to archivePath and
// renamed into place, so archivePath never holds a truncated archive. On failure
// sourceDir is left untouched.
func (z *ZipArchiver) Archive(sourceDir, archivePath string) (*extraction.ArchiveResult, error) {
	files, err := listFiles(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extraction.ErrArchiveFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), "."+filepath.Base(archivePath)+".*"+extraction.PartialArchiveSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: create archive: %v", extraction.ErrArchiveFailed, err)
	}
	tmpPath := tmp.Name()

	size, err := writeZip(tmp, sourceDir, files)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, archivePath)
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %v", extraction.ErrArchiveFailed, err)
	}

	if err := os.RemoveAll(sourceDir); err != nil {
		return nil, fmt.Errorf("%w: archive written to %s but workspace not removed: %v", extraction.ErrWorkspace, archivePath, err)
	}

	return &extraction.ArchiveResult{
		Path:    archivePath,
		Entries: files,
		Bytes:   size,
	}, nil
}

// listFiles returns the names of regular files directly inside dir, sorted
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeZip(w io.Writer, dir string, files []string) (int64, error) {
	counter := &countingWriter{w: w}
	zw := zip.NewWriter(counter)

	for _, name := range files {
		if err := addFileToZip(zw, filepath.Join(dir, name)); err != nil {
			zw.Close()
			return 0, fmt.Errorf("add %s to zip: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return 0, err
	}
	return counter.n, nil
}

func addFileToZip(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(filename)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Ensure ZipArchiver implements extraction.Archiver
var _ extraction.Archiver = (*ZipArchiver)(nil)
