// Package analysis turns raw text into a stream of tokens for indexing.
// Analyzers are registered by name so column definitions can refer to them
// symbolically.
package analysis

import (
	"fmt"
	"sync"
)

// Token is a single term occurrence produced by an analyzer. Position is the
// ordinal of the token within the analyzed text, starting at zero.
type Token struct {
	Term     string
	Position uint32
}

// Analyzer converts text into tokens. Implementations must be safe for
// concurrent use.
type Analyzer interface {
	Analyze(text string) []Token
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Analyzer)
)

// Register makes an analyzer available under the given name, replacing any
// previous registration.
func Register(name string, a Analyzer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = a
}

// Get returns the analyzer registered under name.
func Get(name string) (Analyzer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("analysis: unknown analyzer %q", name)
	}
	return a, nil
}

func init() {
	Register(StandardName, &StandardAnalyzer{})
}
