package cache

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"verse-rotator/internal/api"
)

const archiveURL = "https://bolls.life/static/translations"

// Archive keeps downloaded translation dumps on disk, one JSON file per
// translation.
type Archive struct {
	dir        string
	baseURL    string
	httpClient *http.Client
}

// NewArchive creates dir if needed.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Archive{dir: dir, baseURL: archiveURL, httpClient: &http.Client{}}, nil
}

// WithBaseURL points downloads at another host.
func (a *Archive) WithBaseURL(u string) *Archive {
	a.baseURL = strings.TrimRight(u, "/")
	return a
}

// ErrInvalidID is returned for a translation id that is not a plain name.
var ErrInvalidID = errors.New("invalid translation id")

func (a *Archive) path(translation string) (string, error) {
	if translation == "" || translation == "." || strings.Contains(translation, "..") ||
		strings.ContainsAny(translation, `/\`) || filepath.Base(translation) != translation {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, translation)
	}
	return filepath.Join(a.dir, translation+".json"), nil
}

// IsCached checks if a translation is already downloaded.
func (a *Archive) IsCached(translation string) bool {
	path, err := a.path(translation)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Download fetches the translation's ZIP and extracts its JSON dump.
func (a *Archive) Download(ctx context.Context, translation string) error {
	dest, err := a.path(translation)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s.zip", a.baseURL, translation)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", translation+"*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return err
	}

	return extractJSON(tmpFile.Name(), dest)
}

// extractJSON writes the first .json entry of the ZIP to dest. The dump is
// written beside dest and renamed into place, so a failed extract never
// leaves a partial file behind.
func extractJSON(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if filepath.Ext(f.Name) != ".json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		outFile, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
		if err != nil {
			return err
		}
		_, err = io.Copy(outFile, rc)
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(outFile.Name())
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		if err := os.Rename(outFile.Name(), dest); err != nil {
			os.Remove(outFile.Name())
			return err
		}
		return nil
	}

	return fmt.Errorf("no JSON file found in ZIP")
}

// Load decodes a cached translation dump.
func (a *Archive) Load(translation string) ([]api.Verse, error) {
	path, err := a.path(translation)
	if err != nil {
		return nil, err
	}
	if !a.IsCached(translation) {
		return nil, fmt.Errorf("translation %s not cached", translation)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var verses []api.Verse
	if err := json.NewDecoder(file).Decode(&verses); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", translation, err)
	}
	return verses, nil
}

// List returns the cached translation ids.
func (a *Archive) List() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}

	var translations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			translations = append(translations, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return translations, nil
}

// Remove deletes a cached translation.
func (a *Archive) Remove(translation string) error {
	path, err := a.path(translation)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Size returns the total size of cached data in bytes.
func (a *Archive) Size() (int64, error) {
	var size int64
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		size += info.Size()
	}
	return size, nil
}
