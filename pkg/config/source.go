package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultStem is the base name of the layered configuration files.
const DefaultStem = "appsettings"

// Extensions are tried in this order for every layer; the first existing
// file wins.
var Extensions = []string{".json", ".yaml", ".yml"}

// Source locates the layered configuration files.
type Source struct {
	// Dir is the directory holding the files.
	Dir string

	// Stem is the base name shared by all layers, e.g. "appsettings".
	Stem string

	// Ext, when set, is tried before Extensions.
	Ext string

	// Environment selects the environment-specific layers.
	Environment string
}

// ResolveSource maps a --config value to a Source. An empty path means the
// executable's directory; a directory uses the default stem; a file path uses
// the file's own name as the stem, so "svc.yaml" layers "svc.user.yaml",
// "svc.Production.yaml" and so on.
func ResolveSource(path, environment string) (Source, error) {
	src := Source{Stem: DefaultStem, Environment: environment}

	if path == "" {
		dir, err := executableDir()
		if err != nil {
			return Source{}, err
		}
		src.Dir = dir
		return src, nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		src.Dir = path
		return src, nil
	case err == nil || os.IsNotExist(err):
		ext := filepath.Ext(path)
		if ext != "" && !isKnownExt(ext) {
			return Source{}, fmt.Errorf("unsupported config file extension %q", ext)
		}
		src.Dir = filepath.Dir(path)
		src.Stem = strings.TrimSuffix(filepath.Base(path), ext)
		src.Ext = ext
		return src, nil
	default:
		return Source{}, fmt.Errorf("failed to access config path %s: %w", path, err)
	}
}

// Layers returns the layer stems in precedence order, lowest first.
func (s Source) Layers() []string {
	layers := []string{s.Stem, s.Stem + ".user"}
	if s.Environment != "" {
		layers = append(layers,
			s.Stem+"."+s.Environment,
			s.Stem+"."+s.Environment+".user",
		)
	}
	return layers
}

// Files returns the existing layer files in precedence order.
func (s Source) Files() []string {
	var files []string
	for _, layer := range s.Layers() {
		if f := s.find(layer); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// Matches reports whether name (a base file name) is a candidate layer file.
func (s Source) Matches(name string) bool {
	ext := filepath.Ext(name)
	if !isKnownExt(ext) {
		return false
	}
	stem := strings.TrimSuffix(name, ext)
	for _, layer := range s.Layers() {
		if stem == layer {
			return true
		}
	}
	return false
}

// PrimaryFile is the path of the base layer, existing or not. Used by
// commands that write configuration.
func (s Source) PrimaryFile() string {
	if f := s.find(s.Stem); f != "" {
		return f
	}
	ext := s.Ext
	if ext == "" {
		ext = ".yaml"
	}
	return filepath.Join(s.Dir, s.Stem+ext)
}

func (s Source) find(layer string) string {
	for _, ext := range s.extensions() {
		p := filepath.Join(s.Dir, layer+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func (s Source) extensions() []string {
	if s.Ext == "" {
		return Extensions
	}
	exts := []string{s.Ext}
	for _, e := range Extensions {
		if e != s.Ext {
			exts = append(exts, e)
		}
	}
	return exts
}

func isKnownExt(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
