package engine

// FiringSet records which (rule, match) pairs have fired in the current
// scheduler pass.
//
// Search collects distinct substitutions per class, but unions made earlier
// in the same apply phase can make two collected matches canonically equal.
// The runner consults the set before applying each match so that a given
// (rule, class, substitution) triple is applied at most once per pass.
//
// Keys are built from canonical class ids at apply time. The set is reset
// at the start of every pass.
//
// Not safe for concurrent use; a runner owns exactly one.
type FiringSet struct {
	pass  int
	fired map[string]bool
}

// NewFiringSet creates an empty firing set.
func NewFiringSet() *FiringSet {
	return &FiringSet{fired: make(map[string]bool)}
}

// Begin starts a new pass, forgetting all earlier firings.
func (f *FiringSet) Begin(pass int) {
	f.pass = pass
	f.fired = make(map[string]bool)
}

// Pass returns the current pass index.
func (f *FiringSet) Pass() int {
	return f.pass
}

// WouldRepeat reports whether rule already fired on matchKey this pass.
func (f *FiringSet) WouldRepeat(rule, matchKey string) bool {
	return f.fired[rule+"\x00"+matchKey]
}

// Record marks that rule fired on matchKey this pass.
func (f *FiringSet) Record(rule, matchKey string) {
	f.fired[rule+"\x00"+matchKey] = true
}

// Size returns the number of firings recorded this pass.
func (f *FiringSet) Size() int {
	return len(f.fired)
}
