package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"xray-diagnoser/internal/domain/entity"
)

// sample файл снимка с меткой
type sample struct {
	path  string
	label entity.Label
}

// listImages возвращает отсортированные по имени файлы папки класса.
// Скрытые файлы и вложенные папки пропускаются.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entity.ErrMissingDirectory, dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// checkClassFolders проверяет, что каждая папка сплита описана в ClassSet.
func checkClassFolders(splitDir string, classes entity.ClassSet) error {
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", entity.ErrMissingDirectory, splitDir)
		}
		return fmt.Errorf("read dir %s: %w", splitDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := classes.Lookup(e.Name()); !ok {
			return fmt.Errorf("%w: %s", entity.ErrUnknownClass, filepath.Join(splitDir, e.Name()))
		}
	}
	return nil
}

// listSamples собирает файлы всех классов сплита в порядке меток.
func listSamples(splitDir string, classes entity.ClassSet) ([]sample, error) {
	if err := checkClassFolders(splitDir, classes); err != nil {
		return nil, err
	}

	var out []sample
	for _, c := range classes.Ordered() {
		files, err := listImages(filepath.Join(splitDir, c.Folder))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			out = append(out, sample{path: f, label: c.Label})
		}
	}
	return out, nil
}
