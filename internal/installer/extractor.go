package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dl-setup/internal/logger"

	"github.com/bodgit/sevenzip"
	"github.com/xi2/xz"
)

// ExtractArchive routes to the extractor for src's format, unpacks it under
// dest and returns the directory holding the content: dest itself, or the
// single top-level directory when the archive wraps everything in one.
func ExtractArchive(src, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}
	var err error
	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("[DEBUG] compression type is zip\n")
		err = extractZip(src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("[DEBUG] compression type is .7z\n")
		err = extract7z(src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		logger.Debug("[DEBUG] compression type is .tar.*\n")
		err = extractTarArchive(src, dest)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}
	if err != nil {
		return "", err
	}
	return contentRoot(dest), nil
}

// contentRoot descends into dir while it holds exactly one entry that is a directory.
func contentRoot(dir string) string {
	for {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 1 || !entries[0].IsDir() {
			return dir
		}
		dir = filepath.Join(dir, entries[0].Name())
	}
}

// safeJoin resolves an archive entry name under dest and rejects names that
// would land outside it.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, dest)
	}
	return target, nil
}

// writeEntry copies r into a new file at target.
func writeEntry(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode.Perm() == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// extractTarArchive handles tar and compressed tar variants
func extractTarArchive(src, dest string) error {
	logger.Debug("[DEBUG] uncompressing %s to %s\n", src, dest)
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
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
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			logger.Debug("[DEBUG] Skipping non-regular tar entry %s\n", hdr.Name)
		}
	}
}

// extractZip extracts a .zip archive
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extract7z handles .7z extraction using the sevenzip library
func extract7z(src, dest string) error {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// wheelhouseDir is where a configured wheelhouse archive is unpacked.
func (p *Provisioner) wheelhouseDir() string {
	return filepath.Join(p.Config.Venv.Root, ".wheelhouse")
}

// PrepareWheelhouse unpacks the configured wheelhouse archive once and points
// pip at it. A URL is downloaded to the temp directory first.
func (p *Provisioner) PrepareWheelhouse() error {
	src := p.Config.Wheelhouse
	if src == "" {
		return nil
	}
	dest := p.wheelhouseDir()
	if pathExists(dest) {
		logger.Info("[INFO] Wheelhouse %s already extracted. Skipping.\n", dest)
		p.Wheelhouse = contentRoot(dest)
		return nil
	}

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		tmp, err := p.downloadWheelhouse(src)
		if tmp != "" {
			defer os.Remove(tmp)
		}
		if err != nil {
			return err
		}
		src = tmp
	}

	logger.Info("[INFO] Extracting wheelhouse %s to %s\n", src, dest)
	root, err := ExtractArchive(src, dest)
	if err != nil {
		// A half-extracted directory would be mistaken for a finished one next run.
		_ = os.RemoveAll(dest)
		return fmt.Errorf("failed to extract wheelhouse %s: %w", src, err)
	}
	p.Wheelhouse = root
	logger.Debug("[DEBUG] Wheelhouse ready at %s\n", root)
	return nil
}

// downloadWheelhouse fetches rawURL into a fresh temp file whose name ends in
// the archive suffix of the URL path, so ExtractArchive can detect the format.
// The returned path is set whenever a temp file was created.
func (p *Provisioner) downloadWheelhouse(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid wheelhouse URL %s: %w", rawURL, err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "", fmt.Errorf("wheelhouse URL %s does not name an archive", rawURL)
	}

	f, err := os.CreateTemp("", "dl-setup-wheelhouse-*-"+base)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for wheelhouse: %w", err)
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		return tmp, err
	}

	logger.Info("[INFO] Downloading wheelhouse %s to %s\n", rawURL, tmp)
	if err := p.Download(rawURL, tmp); err != nil {
		return tmp, fmt.Errorf("failed to download wheelhouse: %w", err)
	}
	return tmp, nil
}
