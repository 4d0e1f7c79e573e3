package mailbox

import (
	"sort"
	"strings"
)

// listEntry is one flat LIST response line
type listEntry struct {
	Name       string
	Delim      rune
	NoSelect   bool
	SpecialUse string
}

// buildTree nests flat LIST results by hierarchy delimiter. Parents the
// server did not list are synthesized as NoSelect nodes.
func buildTree(entries []listEntry) []*Mailbox {
	nodes := make(map[string]*Mailbox)
	var roots []*Mailbox

	var ensure func(fullName string, delim rune) *Mailbox
	ensure = func(fullName string, delim rune) *Mailbox {
		if node, ok := nodes[fullName]; ok {
			return node
		}

		name := fullName
		parentName := ""
		if delim != 0 {
			if idx := strings.LastIndex(fullName, string(delim)); idx > 0 {
				parentName = fullName[:idx]
				name = fullName[idx+1:]
			}
		}

		node := &Mailbox{Name: name, FullName: fullName, NoSelect: true}
		nodes[fullName] = node

		if parentName == "" {
			roots = append(roots, node)
		} else {
			parent := ensure(parentName, delim)
			parent.Children = append(parent.Children, node)
		}
		return node
	}

	for _, entry := range entries {
		node := ensure(entry.Name, entry.Delim)
		node.NoSelect = entry.NoSelect
		node.SpecialUse = entry.SpecialUse
	}

	sortTree(roots)
	return roots
}

// sortTree orders siblings with INBOX first, then by name
func sortTree(nodes []*Mailbox) {
	sort.SliceStable(nodes, func(i, j int) bool {
		iInbox := strings.EqualFold(nodes[i].FullName, "INBOX")
		jInbox := strings.EqualFold(nodes[j].FullName, "INBOX")
		if iInbox != jInbox {
			return iInbox
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, node := range nodes {
		sortTree(node.Children)
	}
}
