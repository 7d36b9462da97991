package runtime

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/risor-io/risor/object"

	"github.com/jward/codehud/internal/depgraph"
	"github.com/jward/codehud/internal/lang"
)

// Resolver runs resolve/<language>.risor to propose import targets.
// Languages without a script fall through to the Go resolver.
//
// Scripts see these globals:
//
//	import_text  raw import text
//	importer     slash path of the importing file, relative to the root
//	language     canonical language name
//	prefixes     project namespace prefixes
//	emit(path)   appends a candidate path
type Resolver struct {
	rt       *Runtime
	ctx      context.Context
	fallback depgraph.Resolver
	prefixes []string
	logger   *slog.Logger

	mu      sync.Mutex
	scripts map[lang.ID]string
	failed  map[lang.ID]bool
}

// NewResolver loads resolution scripts for every registered language. A
// missing script is not an error.
func NewResolver(ctx context.Context, rt *Runtime, fallback depgraph.Resolver, prefixes []string) (*Resolver, error) {
	r := &Resolver{
		rt:       rt,
		ctx:      ctx,
		fallback: fallback,
		prefixes: prefixes,
		logger:   rt.logger,
		scripts:  map[lang.ID]string{},
		failed:   map[lang.ID]bool{},
	}
	if rt.fsys == nil && rt.scriptsDir == "" {
		return r, nil
	}
	for _, id := range lang.All() {
		src, err := rt.LoadScript(ResolutionScriptPath(id.Name()))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		r.scripts[id] = src
	}
	return r, nil
}

// Scripted lists the languages handled by a script.
func (r *Resolver) Scripted() []lang.ID {
	out := make([]lang.ID, 0, len(r.scripts))
	for _, id := range lang.All() {
		if _, ok := r.scripts[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Candidates implements depgraph.Resolver. A script error is logged once
// per language and the fallback answers for that call.
func (r *Resolver) Candidates(importer string, id lang.ID, raw string) []string {
	src, ok := r.scripts[id]
	if !ok {
		return r.fallbackCandidates(importer, id, raw)
	}

	var out []string
	emit := object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("emit: path must be a string, got %s", args[0].Type())
		}
		out = append(out, s.Value())
		return object.Nil
	})

	err := r.rt.eval(r.ctx, src, ResolutionScriptPath(id.Name()), map[string]any{
		"import_text": raw,
		"importer":    importer,
		"language":    id.Name(),
		"prefixes":    stringList(r.prefixes),
		"emit":        emit,
	})
	if err != nil {
		r.mu.Lock()
		first := !r.failed[id]
		r.failed[id] = true
		r.mu.Unlock()
		if first {
			r.logger.Warn("resolution script failed", "language", id, "import", raw, "error", err)
		}
		return r.fallbackCandidates(importer, id, raw)
	}
	return out
}

func (r *Resolver) fallbackCandidates(importer string, id lang.ID, raw string) []string {
	if r.fallback == nil {
		return nil
	}
	return r.fallback.Candidates(importer, id, raw)
}
