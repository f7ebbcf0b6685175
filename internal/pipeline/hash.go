package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CalculateFileHash computes SHA-256 hash of a file
func CalculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// Fingerprint identifies a run by the content of its inputs and its as-of
// date. Optional files that are absent hash as "missing".
func Fingerprint(dataDir string, asOf time.Time) (string, map[string]string, error) {
	hashes := make(map[string]string, len(inputFiles))
	h := sha256.New()

	for _, in := range inputFiles {
		sum, err := CalculateFileHash(filepath.Join(dataDir, in.Name))
		if err != nil {
			if !in.Required && errors.Is(err, fs.ErrNotExist) {
				sum = "missing"
			} else {
				return "", nil, fmt.Errorf("%s: %w", in.Name, err)
			}
		}
		hashes[in.Name] = sum
		fmt.Fprintf(h, "%s:%s\n", in.Name, sum)
	}
	fmt.Fprintf(h, "as_of:%s\n", asOf.Format("2006-01-02"))

	return fmt.Sprintf("%x", h.Sum(nil)), hashes, nil
}
