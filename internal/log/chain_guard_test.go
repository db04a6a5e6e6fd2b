// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ManuGH/srtcheck/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Constructors in this package return zerolog.Logger by value; its level
// methods need an addressable receiver.
var valueConstructors = map[string]bool{
	"WithComponent":            true,
	"WithComponentFromContext": true,
	"WithContext":              true,
	"Base":                     true,
	"Derive":                   true,
}

var levelMethods = map[string]bool{
	"Trace": true, "Debug": true, "Info": true, "Warn": true,
	"Error": true, "Fatal": true, "Panic": true, "Err": true, "Log": true,
}

func TestNoLevelCallOnReturnedLogger(t *testing.T) {
	var violations []string
	fset := token.NewFileSet()

	for _, root := range testutil.SourceDirs(t) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}

			file, parseErr := parser.ParseFile(fset, path, nil, 0)
			if parseErr != nil {
				return parseErr
			}
			ast.Inspect(file, func(n ast.Node) bool {
				sel, ok := n.(*ast.SelectorExpr)
				if !ok || !levelMethods[sel.Sel.Name] {
					return true
				}
				call, ok := sel.X.(*ast.CallExpr)
				if !ok {
					return true
				}
				if name := calleeName(call.Fun); valueConstructors[name] {
					violations = append(violations, fset.Position(sel.Pos()).String()+" "+name)
				}
				return true
			})
			return nil
		})
		require.NoError(t, err, "scan %s", root)
	}

	sort.Strings(violations)
	require.Empty(t, violations, "bind the logger to a variable before calling a level method:\n%s", strings.Join(violations, "\n"))
}

func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	}
	return ""
}
