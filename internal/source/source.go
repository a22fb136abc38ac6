package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/dipscan/internal/loader"
	"github.com/wonny/dipscan/pkg/logger"
)

// Fetcher downloads remote inputs
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extensions accepted when a directory is expanded
var Extensions = map[string]bool{
	".csv": true, ".tsv": true, ".txt": true,
	".xlsx": true, ".xls": true,
	".html": true, ".htm": true,
}

// Reader turns local paths, directories and http(s) URLs into loader inputs
// ⭐ SSOT: 입력 소스 → loader.Input 변환
type Reader struct {
	fetcher Fetcher
	logger  *logger.Logger
}

// NewReader creates a Reader. fetcher may be nil when URLs are not used.
func NewReader(fetcher Fetcher, log *logger.Logger) *Reader {
	if log == nil {
		log = logger.Nop()
	}
	return &Reader{fetcher: fetcher, logger: log.WithComponent("source")}
}

// IsURL reports whether ref is an http(s) URL
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NameFromURL returns the last path segment, the label the resolver sees
func NameFromURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		return u.Host
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// Expand replaces directories with their price files in name order
func Expand(refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if IsURL(ref) {
			out = append(out, ref)
			continue
		}

		info, err := os.Stat(ref)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", ref, err)
		}
		if !info.IsDir() {
			out = append(out, ref)
			continue
		}

		entries, err := os.ReadDir(ref)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", ref, err)
		}
		files := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !Extensions[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			files = append(files, filepath.Join(ref, e.Name()))
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

// Read loads every ref, in order. A failed read fails the whole call since
// nothing was handed to the loader yet.
func (r *Reader) Read(ctx context.Context, refs []string) ([]loader.Input, error) {
	expanded, err := Expand(refs)
	if err != nil {
		return nil, err
	}

	inputs := make([]loader.Input, len(expanded))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, ref := range expanded {
		i, ref := i, ref
		g.Go(func() error {
			in, err := r.readOne(gctx, ref)
			if err != nil {
				return err
			}
			inputs[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.WithField("inputs", len(inputs)).Debug("Sources read")
	return inputs, nil
}

func (r *Reader) readOne(ctx context.Context, ref string) (loader.Input, error) {
	if IsURL(ref) {
		if r.fetcher == nil {
			return loader.Input{}, fmt.Errorf("fetch %s: no HTTP client configured", ref)
		}
		data, err := r.fetcher.Fetch(ctx, ref)
		if err != nil {
			return loader.Input{}, fmt.Errorf("fetch %s: %w", ref, err)
		}
		return loader.Input{Name: NameFromURL(ref), Data: data}, nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return loader.Input{}, fmt.Errorf("read %s: %w", ref, err)
	}
	return loader.Input{Name: filepath.Base(ref), Data: data}, nil
}
