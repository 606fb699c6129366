package library

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Ensure populates the audio directory on first run: if it already
// contains any file it is left untouched, otherwise every archive URL is
// downloaded and extracted. Archives are extracted into a staging
// directory and moved into the audio directory only once all of them
// succeeded, so a failed first run leaves the audio directory untouched
// and restarting the service retries from scratch.
func (l *Library) Ensure(ctx context.Context, logger *slog.Logger, urls []string) error {
	populated, err := l.populated()
	if err != nil {
		return err
	}
	if populated {
		logger.Debug("audio library already populated", "dir", l.dir)
		return nil
	}

	if len(urls) == 0 {
		return fmt.Errorf("library: %s is empty and no archives are configured", l.dir)
	}

	staging, err := os.MkdirTemp("", "aoe2bot-staging-*")
	if err != nil {
		return fmt.Errorf("library: create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	for _, url := range urls {
		logger.Info("downloading archive", "url", url)
		n, err := fetchArchive(ctx, url, staging)
		if err != nil {
			return err
		}
		logger.Info("archive extracted", "url", url, "files", n)
	}

	return l.commit(staging)
}

// commit moves every staged file into the audio directory.
func (l *Library) commit(staging string) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("library: create %s: %w", l.dir, err)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("library: reading staging: %w", err)
	}
	for _, e := range entries {
		if err := moveFile(filepath.Join(staging, e.Name()), filepath.Join(l.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// moveFile renames src to dest, copying when the rename crosses
// filesystems (the staging directory lives in the OS temp dir).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("library: opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("library: creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("library: copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("library: closing %s: %w", dest, err)
	}
	return os.Remove(src)
}

// populated reports whether the audio directory exists and holds at least
// one file.
func (l *Library) populated() (bool, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("library: reading %s: %w", l.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return true, nil
		}
	}
	return false, nil
}

// fetchArchive downloads a zip archive to a temp file and extracts it into
// dir. Returns the number of extracted files.
func fetchArchive(ctx context.Context, url, dir string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("library: building request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("library: downloading %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("library: downloading %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "aoe2bot-archive-*.zip")
	if err != nil {
		return 0, fmt.Errorf("library: creating temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return 0, fmt.Errorf("library: saving %s: %w", url, err)
	}

	return extractZip(tmp.Name(), dir)
}

// extractZip extracts every regular file in the archive into dir,
// flattening directory structure. Entries that would escape dir are
// rejected.
func extractZip(archive, dir string) (int, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return 0, fmt.Errorf("library: opening %s: %w", archive, err)
	}
	defer func() { _ = r.Close() }()

	count := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := filepath.Base(filepath.Clean(f.Name))
		if name == "." || name == ".." || strings.HasPrefix(name, ".") {
			return count, fmt.Errorf("library: refusing suspicious entry %q in %s", f.Name, archive)
		}

		if err := extractEntry(f, filepath.Join(dir, name)); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("library: opening entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("library: creating %s: %w", dest, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("library: extracting %s: %w", f.Name, err)
	}

	return out.Close()
}
