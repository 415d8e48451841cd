package batch

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks root recursively and returns every scan with one of the
// given extensions, sorted. Files whose stem ends with maskSuffix are masks
// written by an earlier run and are left out.
func Discover(root string, extensions []string, maskSuffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		stem, _, ok := splitExt(d.Name(), extensions)
		if !ok || strings.HasSuffix(stem, maskSuffix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// MaskPath returns the output path for a scan: name.ext becomes
// name<suffix>.ext, keeping compound extensions such as .nii.gz intact.
func MaskPath(path string, extensions []string, suffix string) string {
	dir, name := filepath.Split(path)
	stem, ext, ok := splitExt(name, extensions)
	if !ok {
		ext = filepath.Ext(name)
		stem = strings.TrimSuffix(name, ext)
	}
	return filepath.Join(dir, stem+suffix+ext)
}

// splitExt matches the longest extension, case-insensitively
func splitExt(name string, extensions []string) (stem, ext string, ok bool) {
	lower := strings.ToLower(name)
	for _, candidate := range extensions {
		c := strings.ToLower(candidate)
		if len(c) > len(ext) && strings.HasSuffix(lower, c) && len(name) > len(c) {
			ext = name[len(name)-len(c):]
			ok = true
		}
	}
	if !ok {
		return name, "", false
	}
	return name[:len(name)-len(ext)], ext, true
}
