package engine

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"lukechampine.com/blake3"
)

type archiveFormat uint8

const (
	formatZip archiveFormat = iota
	formatTarGzip
	formatTarBzip2
)

// ArchiveSource is an engine bundle archive, either a file on disk or bytes
// embedded in the binary. Name decides the format (.zip, .tar.gz/.tgz, .tar.bz2/.tbz2).
type ArchiveSource struct {
	Path string
	Name string
	Data []byte
}

func FileArchive(path string) ArchiveSource {
	return ArchiveSource{Path: path, Name: filepath.Base(path)}
}

func BytesArchive(name string, data []byte) ArchiveSource {
	return ArchiveSource{Name: name, Data: data}
}

func (s ArchiveSource) Empty() bool {
	return s.Path == "" && len(s.Data) == 0
}

func (s ArchiveSource) String() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Name
}

func (s ArchiveSource) format() (archiveFormat, error) {
	name := strings.ToLower(s.Name)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return formatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return formatTarGzip, nil
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return formatTarBzip2, nil
	default:
		return 0, fmt.Errorf("unsupported archive format %q", s.Name)
	}
}

type readerAtCloser interface {
	io.ReaderAt
	io.Closer
}

type nopCloser struct{ io.ReaderAt }

func (nopCloser) Close() error { return nil }

func (s ArchiveSource) open() (readerAtCloser, int64, error) {
	if s.Path == "" {
		return nopCloser{bytes.NewReader(s.Data)}, int64(len(s.Data)), nil
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// extractArchive unpacks src into dest and returns the blake3 digest of the archive.
func extractArchive(ctx context.Context, src ArchiveSource, dest string) (string, error) {
	format, err := src.format()
	if err != nil {
		return "", err
	}
	ra, size, err := src.open()
	if err != nil {
		return "", err
	}
	defer ra.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, io.NewSectionReader(ra, 0, size)); err != nil {
		return "", err
	}
	digest := hex.EncodeToString(h.Sum(nil))

	stream := io.NewSectionReader(ra, 0, size)
	switch format {
	case formatZip:
		err = extractZip(ctx, ra, size, dest)
	case formatTarGzip:
		var zr *gzip.Reader
		zr, err = gzip.NewReader(stream)
		if err != nil {
			return "", err
		}
		defer zr.Close()
		err = extractTar(ctx, zr, dest)
	case formatTarBzip2:
		var br *bzip2.Reader
		br, err = bzip2.NewReader(stream, &bzip2.ReaderConfig{})
		if err != nil {
			return "", err
		}
		defer br.Close()
		err = extractTar(ctx, br, dest)
	}
	if err != nil {
		return "", err
	}
	return digest, nil
}

func extractZip(ctx context.Context, ra io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode.IsRegular():
			rc, err := f.Open()
			if err != nil {
				return err
			}
			err = writeEntry(target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return fmt.Errorf("extract %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

func extractTar(ctx context.Context, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		}
	}
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// safeJoin resolves an archive entry name under dest, rejecting names that escape it.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}
