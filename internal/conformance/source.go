package conformance

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
)

// sourceFile is one parsed Go file with its location relative to the
// tree root.
type sourceFile struct {
	path string // relative, slash-separated
	dir  string // relative package dir, slash-separated
	file *ast.File
}

// sourceTree is the parsed repository the checks run against.
type sourceTree struct {
	fset  *token.FileSet
	files []*sourceFile

	// consts maps string constant names to their values, collected
	// across every package. Channel references in call sites resolve
	// through it.
	consts map[string]string
}

// skip names directories never considered part of the tree.
var skipDirs = map[string]bool{
	"testdata": true,
	"vendor":   true,
	".git":     true,
}

// loadTree parses every non-test Go file under root. Test files are
// excluded: they wire ad-hoc channels and throwaway subscriptions that
// the manifest deliberately does not declare.
func loadTree(root string) (*sourceTree, error) {
	tree := &sourceTree{
		fset:   token.NewFileSet(),
		consts: make(map[string]string),
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (skipDirs[name] || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			return nil
		}

		f, err := parser.ParseFile(tree.fset, path, nil, 0)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		tree.files = append(tree.files, &sourceFile{
			path: rel,
			dir:  dirOf(rel),
			file: f,
		})
		tree.collectConsts(f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func dirOf(rel string) string {
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[:i]
	}
	return "."
}

// collectConsts records every string constant declared in a file.
func (t *sourceTree) collectConsts(f *ast.File) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					break
				}
				lit, ok := vs.Values[i].(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				if v, err := strconv.Unquote(lit.Value); err == nil {
					t.consts[name.Name] = v
				}
			}
		}
	}
}

// resolveChannel turns a Publish/Subscribe channel argument into the
// channel name. It handles string literals, local constants, and
// package-qualified constants. Unresolvable expressions return false.
func (t *sourceTree) resolveChannel(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", false
		}
		v, err := strconv.Unquote(e.Value)
		return v, err == nil
	case *ast.Ident:
		v, ok := t.consts[e.Name]
		return v, ok
	case *ast.SelectorExpr:
		v, ok := t.consts[e.Sel.Name]
		return v, ok
	}
	return "", false
}

// busCall matches a call of the form <recv>.Publish(ch, ...) or
// <recv>.Subscribe(ch, ...). It returns the method name and the
// resolved channel, if any.
func (t *sourceTree) busCall(call *ast.CallExpr) (method, channel string, ok bool) {
	sel, isSel := call.Fun.(*ast.SelectorExpr)
	if !isSel {
		return "", "", false
	}
	if sel.Sel.Name != "Publish" && sel.Sel.Name != "Subscribe" {
		return "", "", false
	}
	if len(call.Args) == 0 {
		return "", "", false
	}
	ch, resolved := t.resolveChannel(call.Args[0])
	if !resolved {
		return "", "", false
	}
	return sel.Sel.Name, ch, true
}

// importPaths returns a file's import paths, keyed by the name they are
// referenced under in that file.
func importPaths(f *ast.File) map[string]string {
	out := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := filepath.Base(path)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		out[name] = path
	}
	return out
}
