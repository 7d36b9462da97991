package runtime

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/risor-io/risor/object"
)

// hostFuncs are the string and path helpers every script sees. Paths use
// forward slashes regardless of platform.
func hostFuncs() map[string]any {
	return map[string]any{
		"split":       makeSplitFn(),
		"join":        makeJoinFn(),
		"has_prefix":  strPredicate("has_prefix", strings.HasPrefix),
		"has_suffix":  strPredicate("has_suffix", strings.HasSuffix),
		"contains":    strPredicate("contains", strings.Contains),
		"trim_prefix": strTransform2("trim_prefix", strings.TrimPrefix),
		"trim_suffix": strTransform2("trim_suffix", strings.TrimSuffix),
		"trim_left":   strTransform2("trim_left", strings.TrimLeft),
		"replace": object.NewBuiltin("replace", func(ctx context.Context, args ...object.Object) object.Object {
			s, errObj := stringArgs("replace", args, 3)
			if errObj != nil {
				return errObj
			}
			return object.NewString(strings.ReplaceAll(s[0], s[1], s[2]))
		}),
		"count": object.NewBuiltin("count", func(ctx context.Context, args ...object.Object) object.Object {
			s, errObj := stringArgs("count", args, 2)
			if errObj != nil {
				return errObj
			}
			return object.NewInt(int64(strings.Count(s[0], s[1])))
		}),
		"path_dir":  strTransform1("path_dir", path.Dir),
		"path_base": strTransform1("path_base", path.Base),
		"path_join": makePathJoinFn(),
	}
}

// stringArgs checks that exactly n string arguments were passed.
func stringArgs(name string, args []object.Object, n int) ([]string, object.Object) {
	if len(args) != n {
		return nil, object.NewArgsError(name, n, len(args))
	}
	out := make([]string, n)
	for i, a := range args {
		s, ok := a.(*object.String)
		if !ok {
			return nil, object.Errorf("%s: argument %d must be a string, got %s", name, i+1, a.Type())
		}
		out[i] = s.Value()
	}
	return out, nil
}

func strPredicate(name string, fn func(s, t string) bool) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		s, errObj := stringArgs(name, args, 2)
		if errObj != nil {
			return errObj
		}
		return object.NewBool(fn(s[0], s[1]))
	})
}

func strTransform1(name string, fn func(s string) string) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		s, errObj := stringArgs(name, args, 1)
		if errObj != nil {
			return errObj
		}
		return object.NewString(fn(s[0]))
	})
}

func strTransform2(name string, fn func(s, t string) string) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		s, errObj := stringArgs(name, args, 2)
		if errObj != nil {
			return errObj
		}
		return object.NewString(fn(s[0], s[1]))
	})
}

// makeSplitFn creates "split".
//
// split(s, sep) → []string
func makeSplitFn() *object.Builtin {
	return object.NewBuiltin("split", func(ctx context.Context, args ...object.Object) object.Object {
		s, errObj := stringArgs("split", args, 2)
		if errObj != nil {
			return errObj
		}
		return stringList(strings.Split(s[0], s[1]))
	})
}

// makeJoinFn creates "join".
//
// join(list, sep) → string
func makeJoinFn() *object.Builtin {
	return object.NewBuiltin("join", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("join", 2, len(args))
		}
		list, ok := args[0].(*object.List)
		if !ok {
			return object.Errorf("join: expected list, got %s", args[0].Type())
		}
		sep, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("join: separator must be a string, got %s", args[1].Type())
		}
		parts := make([]string, 0, len(list.Value()))
		for _, item := range list.Value() {
			s, ok := item.(*object.String)
			if !ok {
				return object.Errorf("join: list items must be strings, got %s", item.Type())
			}
			parts = append(parts, s.Value())
		}
		return object.NewString(strings.Join(parts, sep.Value()))
	})
}

// makePathJoinFn creates "path_join".
//
// path_join(elem...) → string
func makePathJoinFn() *object.Builtin {
	return object.NewBuiltin("path_join", func(ctx context.Context, args ...object.Object) object.Object {
		elems := make([]string, len(args))
		for i, a := range args {
			s, ok := a.(*object.String)
			if !ok {
				return object.Errorf("path_join: argument %d must be a string, got %s", i+1, a.Type())
			}
			elems[i] = s.Value()
		}
		return object.NewString(path.Join(elems...))
	})
}

func stringList(xs []string) *object.List {
	items := make([]object.Object, len(xs))
	for i, x := range xs {
		items[i] = object.NewString(x)
	}
	return object.NewList(items)
}

// logObject provides log.Info/Warn/Error/Debug methods for scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg, "source", "script") }
func (l *logObject) Info(msg string)  { l.logger.Info(msg, "source", "script") }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg, "source", "script") }
func (l *logObject) Error(msg string) { l.logger.Error(msg, "source", "script") }
