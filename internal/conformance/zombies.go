package conformance

import (
	"fmt"
	"go/ast"

	"github.com/ayusman/sparsh/internal/wiring"
)

// checkZombieListeners verifies that every persistent subscription a
// plugin takes in Init or Start lands in a field that Stop or Destroy
// touches. A subscription whose unsubscribe func is discarded, or
// parked in a field teardown never reads, outlives its plugin and keeps
// firing into a stopped instance. Oneshot channels are exempt: their
// listeners retire after the single delivery.
func (g *Gate) checkZombieListeners(tree *sourceTree, m *wiring.Manifest) []Violation {
	var out []Violation
	for _, p := range findPluginTypes(tree) {
		out = append(out, checkPluginListeners(tree, m, p)...)
	}
	return out
}

func checkPluginListeners(tree *sourceTree, m *wiring.Manifest, p pluginType) []Violation {
	var out []Violation

	// Fields assigned a subscription during Init/Start, and every
	// identifier teardown references.
	fields := make(map[string]bool)
	teardown := make(map[string]bool)

	for _, sf := range tree.files {
		if sf.dir != p.dir {
			continue
		}
		for _, decl := range sf.file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
				continue
			}
			if receiverName(fd.Recv.List[0].Type) != p.name || fd.Body == nil {
				continue
			}
			switch fd.Name.Name {
			case "Init", "Start":
				out = append(out, collectSubscriptions(tree, m, sf, fd, fields)...)
			case "Stop", "Destroy":
				ast.Inspect(fd.Body, func(n ast.Node) bool {
					if sel, ok := n.(*ast.SelectorExpr); ok {
						teardown[sel.Sel.Name] = true
					}
					return true
				})
			}
		}
	}

	for field := range fields {
		if !teardown[field] {
			out = append(out, Violation{
				Check:   CheckZombieListeners,
				File:    p.file,
				Message: fmt.Sprintf("%s stores a subscription in %s but neither Stop nor Destroy releases it", p.name, field),
			})
		}
	}
	return out
}

// collectSubscriptions finds the Subscribe calls in one startup method.
// Calls feeding a field assignment record the field; a discarded result
// or a local that dies with the method is a violation unless the channel
// is oneshot.
func collectSubscriptions(tree *sourceTree, m *wiring.Manifest, sf *sourceFile, fd *ast.FuncDecl, fields map[string]bool) []Violation {
	var out []Violation

	subscribeIn := func(expr ast.Expr) (channel string, found bool) {
		ast.Inspect(expr, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if method, ch, ok := tree.busCall(call); ok && method == "Subscribe" {
				channel, found = ch, true
				return false
			}
			if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Subscribe" {
				// Unresolvable channel argument: assume persistent.
				found = true
			}
			return true
		})
		return channel, found
	}

	ast.Inspect(fd.Body, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.AssignStmt:
			for _, rhs := range stmt.Rhs {
				ch, found := subscribeIn(rhs)
				if !found {
					continue
				}
				if m.IsOneshot(ch) {
					continue
				}
				stored := false
				for _, lhs := range stmt.Lhs {
					if sel, ok := lhs.(*ast.SelectorExpr); ok {
						fields[sel.Sel.Name] = true
						stored = true
					}
				}
				if !stored {
					out = append(out, Violation{
						Check:   CheckZombieListeners,
						File:    sf.path,
						Message: fmt.Sprintf("%s.%s keeps a subscription to %q out of reach of teardown", receiverName(fd.Recv.List[0].Type), fd.Name.Name, ch),
					})
				}
			}
			return false
		case *ast.ExprStmt:
			ch, found := subscribeIn(stmt.X)
			if found && !m.IsOneshot(ch) {
				out = append(out, Violation{
					Check:   CheckZombieListeners,
					File:    sf.path,
					Message: fmt.Sprintf("%s.%s discards the unsubscribe func for %q", receiverName(fd.Recv.List[0].Type), fd.Name.Name, ch),
				})
			}
			return false
		}
		return true
	})
	return out
}
