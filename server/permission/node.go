// Package permission resolves dotted permission nodes for players.
package permission

import (
	"strconv"
	"strings"
)

// Nodes used by the lobby.
const (
	Lobby = "artedaguerra.lobby"
	Era   = "artedaguerra.era"
	Eras  = "artedaguerra.eras"
	Admin = "artedaguerra.admin"
)

// EraNode returns the node granting access to era n.
func EraNode(n int) string {
	return Era + "." + strconv.Itoa(n)
}

// Match reports whether pattern covers node. A pattern is either a node, `*`,
// or a prefix followed by `.*` which matches every node below that prefix.
// Matching is case-insensitive.
func Match(pattern, node string) bool {
	pattern = normalise(pattern)
	node = normalise(node)
	if pattern == "" || node == "" {
		return false
	}
	if pattern == "*" || pattern == node {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(node, prefix+".")
	}
	return false
}

// Valid reports whether node is a syntactically valid node or pattern.
func Valid(node string) bool {
	node = normalise(node)
	if node == "" {
		return false
	}
	if node == "*" {
		return true
	}
	parts := strings.Split(node, ".")
	for i, part := range parts {
		if part == "" {
			return false
		}
		if part == "*" && i != len(parts)-1 {
			return false
		}
		for _, r := range part {
			if r != '_' && r != '-' && r != '*' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

func normalise(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
