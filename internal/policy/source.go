package policy

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Source fetches raw policy documents by jurisdiction code.
type Source interface {
	Fetch(ctx context.Context, code string) ([]byte, error)
	Codes(ctx context.Context) ([]string, error)
}

// FSSource reads <CODE>.yaml documents from a directory of an fs.FS.
type FSSource struct {
	fsys fs.FS
	dir  string
}

// NewFSSource constructs a source rooted at dir within fsys.
func NewFSSource(fsys fs.FS, dir string) *FSSource {
	if dir == "" {
		dir = "."
	}
	return &FSSource{fsys: fsys, dir: dir}
}

// Builtin returns the policies compiled into the binary.
func Builtin() *FSSource {
	return NewFSSource(builtinFS, "builtin")
}

// NewDirSource reads policies from a directory on disk.
func NewDirSource(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir), ".")
}

// Fetch returns the document for code or ErrPolicyNotFound.
func (s *FSSource) Fetch(_ context.Context, code string) ([]byte, error) {
	code = NormalizeCode(code)
	if !validCode(code) {
		return nil, fmt.Errorf("%w: invalid code %q", ErrPolicyNotFound, code)
	}
	for _, name := range []string{code + ".yaml", strings.ToLower(code) + ".yaml"} {
		data, err := fs.ReadFile(s.fsys, path.Join(s.dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read policy %s: %w", code, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, code)
}

// Codes lists the codes with a document in the directory, sorted.
func (s *FSSource) Codes(context.Context) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	seen := make(map[string]struct{}, len(entries))
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		code := NormalizeCode(strings.TrimSuffix(name, ".yaml"))
		if !validCode(code) {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func validCode(code string) bool {
	if code == "" || len(code) > 16 {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

// LayeredSource consults sources in order; the first one holding a document
// for a code wins.
type LayeredSource []Source

// Fetch returns the first document found.
func (l LayeredSource) Fetch(ctx context.Context, code string) ([]byte, error) {
	for _, src := range l {
		data, err := src.Fetch(ctx, code)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrPolicyNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, NormalizeCode(code))
}

// Codes returns the sorted union of every layer's codes.
func (l LayeredSource) Codes(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for _, src := range l {
		list, err := src.Codes(ctx)
		if err != nil {
			return nil, err
		}
		for _, code := range list {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}
