// Package sandbox runs untrusted generated code in an isolated working
// directory under a wall-clock timeout, with a command gate that refuses
// package-manager invocations before any process is spawned. It is a
// best-effort allow/deny filter plus timeout, not a security boundary.
package sandbox

import "strings"

// BlockedMarker is the fixed token callers look for in stderr when the
// gate refuses a command.
const BlockedMarker = "BLOCKED"

// blockedCommands are package-manager invocation phrases refused by the
// gate, matched case-insensitively as substrings. Matching is deliberately
// coarse: a benign command that merely mentions a phrase (say inside an
// echo) is still refused, because over-blocking is the safer failure mode
// for a zero-dependency benchmark.
var blockedCommands = []string{
	// Python package managers
	"pip install", "pip3 install", "pip uninstall", "pip3 uninstall",
	"python -m pip install", "python3 -m pip install",
	"python -m pip uninstall", "python3 -m pip uninstall",
	"conda install", "conda create", "mamba install",
	"poetry add", "poetry install",
	"pipenv install", "pdm add",
	// Node.js package managers
	"npm install", "npm i ", "npm ci", "npm add",
	"yarn add", "yarn install",
	"pnpm install", "pnpm add",
	"bun install", "bun add",
	// Other package managers
	"brew install", "apt install", "apt-get install",
	"yum install", "dnf install", "pacman -S",
	"cargo add", "cargo install",
	"go get", "go install",
	"gem install", "bundle install",
	"composer require", "composer install",
	"nuget install", "dotnet add package",
}

// Gate is the static deny-list filter applied to every command before it
// reaches a subprocess. The zero value is unusable; use DefaultGate.
type Gate struct {
	patterns []string
}

// DefaultGate returns a Gate loaded with the package-manager deny-list.
func DefaultGate() *Gate {
	return &Gate{patterns: blockedCommands}
}

// Match reports the deny-list phrase found in command, if any. The check
// is case-insensitive and has no side effects.
func (g *Gate) Match(command string) (phrase string, blocked bool) {
	lower := strings.ToLower(command)
	for _, p := range g.patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// Allowed reports whether command passes the gate.
func (g *Gate) Allowed(command string) bool {
	_, blocked := g.Match(command)
	return !blocked
}
