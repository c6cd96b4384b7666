package extension

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// copyTree copies the directory tree at src into dst, creating dst as needed
// and overwriting files that already exist.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			return nil // links could escape the extension directory
		default:
			return copyFile(path, target)
		}
	})
}

// copyFile copies src to dst, preserving the file mode.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	_, err = io.Copy(dstFile, srcFile)
	if closeErr := dstFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// treeDigest hashes relative paths and file contents under dir in a stable
// order. It changes whenever any regular file is added, removed or edited.
func treeDigest(dir string) (uint64, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	h := xxhash.New()
	for _, path := range files {
		rel, _ := filepath.Rel(dir, path)
		_, _ = h.WriteString(filepath.ToSlash(rel))
		_, _ = h.Write([]byte{0})

		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return 0, err
		}
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64(), nil
}
