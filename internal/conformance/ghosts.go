package conformance

import (
	"fmt"
	"go/ast"

	"github.com/ayusman/sparsh/internal/wiring"
)

// channelUse records where a channel is published and subscribed.
type channelUse struct {
	publishers  []string
	subscribers []string
}

// checkGhostChannels verifies the source and the manifest describe the
// same channel set: no channel is used without a declaration, every
// declared channel name is backed by a constant, and mandatory channels
// have both ends wired.
func (g *Gate) checkGhostChannels(tree *sourceTree, m *wiring.Manifest) []Violation {
	uses := make(map[string]*channelUse)
	var out []Violation

	for _, sf := range tree.files {
		ast.Inspect(sf.file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			method, ch, ok := tree.busCall(call)
			if !ok {
				return true
			}
			use := uses[ch]
			if use == nil {
				use = &channelUse{}
				uses[ch] = use
			}
			switch method {
			case "Publish":
				use.publishers = append(use.publishers, sf.path)
			case "Subscribe":
				use.subscribers = append(use.subscribers, sf.path)
			}
			return true
		})
	}

	declaredConsts := make(map[string]bool, len(tree.consts))
	for _, v := range tree.consts {
		declaredConsts[v] = true
	}

	for ch, use := range uses {
		if _, declared := m.Channels[ch]; !declared {
			file := ""
			if len(use.publishers) > 0 {
				file = use.publishers[0]
			} else if len(use.subscribers) > 0 {
				file = use.subscribers[0]
			}
			out = append(out, Violation{
				Check:   CheckGhostChannels,
				File:    file,
				Message: fmt.Sprintf("channel %q is used in source but not declared in the manifest", ch),
			})
		}
	}

	for _, name := range m.ChannelNames() {
		ch := m.Channels[name]
		if !declaredConsts[name] {
			out = append(out, Violation{
				Check:   CheckGhostChannels,
				Message: fmt.Sprintf("declared channel %q has no source constant", name),
			})
		}

		use := uses[name]
		hasPublish := use != nil && len(use.publishers) > 0
		hasSubscribe := use != nil && len(use.subscribers) > 0

		switch ch.Role {
		case wiring.RoleMandatory:
			if !hasPublish {
				out = append(out, Violation{
					Check:   CheckGhostChannels,
					Message: fmt.Sprintf("mandatory channel %q has no publisher in source", name),
				})
			}
			if !hasSubscribe {
				out = append(out, Violation{
					Check:   CheckGhostChannels,
					Message: fmt.Sprintf("mandatory channel %q has no subscriber in source", name),
				})
			}
		case wiring.RoleExtensionPoint:
			// Consumers of an extension point are optional; the
			// producer side must exist when declared.
			if len(ch.Producers) > 0 && !hasPublish {
				out = append(out, Violation{
					Check:   CheckGhostChannels,
					Message: fmt.Sprintf("extension point %q declares producers but has no publisher in source", name),
				})
			}
		}
	}
	return out
}
