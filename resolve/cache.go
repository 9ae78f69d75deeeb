package resolve

import (
	"sort"

	"go.uber.org/zap"

	"stitch/dsl"
)

// ReadFunc loads raw stylesheet text for a path. It is the only I/O boundary
// of this package.
type ReadFunc func(path string) ([]byte, error)

// Cache memoizes parsed and resolved export blocks per file path, together
// with the per-file dependency sets used for change propagation. It holds no
// hidden global state: independent build pipelines must construct independent
// caches.
type Cache struct {
	parser  *dsl.Parser
	read    ReadFunc
	log     *zap.Logger
	exports map[string][]*dsl.ExportBlock
	deps    map[string]map[string]struct{}
	loading map[string]struct{}
}

// NewCache creates an empty export cache around a parser and a reader.
func NewCache(parser *dsl.Parser, read ReadFunc, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		parser:  parser,
		read:    read,
		log:     log.Named("styles"),
		exports: make(map[string][]*dsl.ExportBlock),
		deps:    make(map[string]map[string]struct{}),
		loading: make(map[string]struct{}),
	}
}

// Exports returns the fully resolved export blocks of a file, parsing and
// resolving it on first access. Missing files and import cycles between
// files degrade to a diagnostic and an empty result.
func (c *Cache) Exports(path string, warn dsl.WarnFunc) []*dsl.ExportBlock {
	if warn == nil {
		warn = dsl.NopWarn
	}
	if blocks, ok := c.exports[path]; ok {
		return blocks
	}
	if _, ok := c.loading[path]; ok {
		warn("circular @import of "+path, dsl.Location{File: path})
		return nil
	}
	c.loading[path] = struct{}{}
	defer delete(c.loading, path)

	data, err := c.read(path)
	if err != nil {
		warn("unable to read "+path+": "+err.Error(), dsl.Location{File: path})
		c.exports[path] = nil
		return nil
	}

	pr := c.parser.Parse(data, path, warn)
	_, deps := Resolve(pr, path, c, warn)
	c.exports[path] = pr.Exports
	c.deps[path] = deps
	c.log.Debug("Loaded exports", zap.String("path", path), zap.Int("blocks", len(pr.Exports)))
	return pr.Exports
}

// Dependencies returns the sorted set of files the given file referenced
// during resolution. Embedders drop cache entries for a changed file and for
// every file whose dependency set contains it.
func (c *Cache) Dependencies(path string) []string {
	set := c.deps[path]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Invalidate drops the cached state for a path.
func (c *Cache) Invalidate(path string) {
	delete(c.exports, path)
	delete(c.deps, path)
}
