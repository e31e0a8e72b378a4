package attach

// Fallback walks a URL chain one load failure at a time. It is owned by a
// single consumer and is not safe for concurrent use.
type Fallback struct {
	chain  []string
	index  int
	failed bool
}

// NewFallback starts at the first URL. An empty chain starts out failed.
func NewFallback(chain []string) *Fallback {
	return &Fallback{chain: chain, failed: len(chain) == 0}
}

// Current returns the URL to load, or ok=false once the chain is exhausted.
func (f *Fallback) Current() (url string, ok bool) {
	if f.failed {
		return "", false
	}
	return f.chain[f.index], true
}

// Index is the position of the current URL; meaningless once failed.
func (f *Fallback) Index() int { return f.index }

// Failed reports the terminal state.
func (f *Fallback) Failed() bool { return f.failed }

// Fail records a load failure of the current URL and moves to the next
// one. It returns false when the chain is exhausted. Failed is terminal.
func (f *Fallback) Fail() bool {
	if f.failed {
		return false
	}
	if f.index+1 < len(f.chain) {
		f.index++
		return true
	}
	f.failed = true
	return false
}
