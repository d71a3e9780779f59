package conformance

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/ayusman/sparsh/internal/wiring"
)

// lifecycleMethods is the full plugin contract. A type carrying all of
// them is treated as a plugin.
var lifecycleMethods = []string{"Name", "Init", "Start", "Stop", "Destroy"}

// pluginType is one detected plugin implementation.
type pluginType struct {
	name string
	dir  string
	file string
}

// checkOrphanedPlugins verifies every plugin type is referenced by a
// Register call under cmd/ or named in the deferred manifest. A plugin
// that is neither is dead weight nobody will ever boot.
func (g *Gate) checkOrphanedPlugins(tree *sourceTree, deferred wiring.Deferred) []Violation {
	plugins := findPluginTypes(tree)
	registered := registeredTargets(tree)

	var out []Violation
	for _, p := range plugins {
		if registered.names[p.name] || registered.dirSuffix(p.dir) {
			continue
		}
		if _, ok := deferred[p.name]; ok {
			continue
		}
		out = append(out, Violation{
			Check:   CheckOrphanedPlugins,
			File:    p.file,
			Message: fmt.Sprintf("plugin type %s is neither registered at bootstrap nor listed as deferred", p.name),
		})
	}
	return out
}

// findPluginTypes collects exported types declaring the full lifecycle
// method set, grouped by package directory.
func findPluginTypes(tree *sourceTree) []pluginType {
	type key struct{ dir, name string }
	methods := make(map[key]map[string]bool)
	firstFile := make(map[key]string)

	for _, sf := range tree.files {
		for _, decl := range sf.file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
				continue
			}
			recv := receiverName(fd.Recv.List[0].Type)
			if recv == "" || !ast.IsExported(recv) {
				continue
			}
			k := key{sf.dir, recv}
			if methods[k] == nil {
				methods[k] = make(map[string]bool)
				firstFile[k] = sf.path
			}
			methods[k][fd.Name.Name] = true
		}
	}

	var out []pluginType
	for k, set := range methods {
		full := true
		for _, m := range lifecycleMethods {
			if !set[m] {
				full = false
				break
			}
		}
		if full {
			out = append(out, pluginType{name: k.name, dir: k.dir, file: firstFile[k]})
		}
	}
	return out
}

func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

// registration records what the bootstrap Register calls reference:
// type names used directly and import paths of constructor packages.
type registration struct {
	names   map[string]bool
	imports map[string]bool
}

func (r registration) dirSuffix(dir string) bool {
	for path := range r.imports {
		if strings.HasSuffix(path, "/"+dir) || path == dir {
			return true
		}
	}
	return false
}

// registeredTargets scans cmd/ for Register call arguments and records
// which identifiers and packages they reach.
func registeredTargets(tree *sourceTree) registration {
	reg := registration{
		names:   make(map[string]bool),
		imports: make(map[string]bool),
	}
	for _, sf := range tree.files {
		if !underAny(sf.dir, []string{"cmd"}) {
			continue
		}
		imports := importPaths(sf.file)
		varPkg := constructorVars(sf.file, imports)
		ast.Inspect(sf.file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "Register" {
				return true
			}
			for _, arg := range call.Args {
				ast.Inspect(arg, func(an ast.Node) bool {
					switch a := an.(type) {
					case *ast.Ident:
						reg.names[a.Name] = true
						if path, ok := imports[a.Name]; ok {
							reg.imports[path] = true
						}
						if path, ok := varPkg[a.Name]; ok {
							reg.imports[path] = true
						}
					}
					return true
				})
			}
			return true
		})
	}
	return reg
}

// constructorVars maps local variables to the import path of the
// package whose constructor built them, so `p := sensor.New()` followed
// by `sup.Register(p)` still counts as registering the sensor package.
func constructorVars(f *ast.File, imports map[string]string) map[string]string {
	out := make(map[string]string)
	record := func(names []ast.Expr, idents []*ast.Ident, values []ast.Expr) {
		for i, rhs := range values {
			var name string
			if names != nil && i < len(names) {
				if id, ok := names[i].(*ast.Ident); ok {
					name = id.Name
				}
			}
			if idents != nil && i < len(idents) {
				name = idents[i].Name
			}
			if name == "" {
				continue
			}
			ast.Inspect(rhs, func(n ast.Node) bool {
				sel, ok := n.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				if x, ok := sel.X.(*ast.Ident); ok {
					if path, ok := imports[x.Name]; ok {
						out[name] = path
						return false
					}
				}
				return true
			})
		}
	}

	ast.Inspect(f, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.AssignStmt:
			if len(d.Lhs) == len(d.Rhs) {
				record(d.Lhs, nil, d.Rhs)
			}
		case *ast.ValueSpec:
			if len(d.Names) == len(d.Values) {
				record(nil, d.Names, d.Values)
			}
		}
		return true
	})
	return out
}
