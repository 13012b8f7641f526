package topics

import "strings"

// Pool is an immutable ordered list of debate topics.
type Pool struct {
	topics []string
}

// NewPool trims every entry and drops empty ones and duplicates, keeping the first occurrence.
func NewPool(list []string) *Pool {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, raw := range list {
		topic := strings.TrimSpace(raw)
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		out = append(out, topic)
	}
	return &Pool{topics: out}
}

func (p *Pool) Len() int { return len(p.topics) }

// All returns a copy of the topics in load order.
func (p *Pool) All() []string {
	return append([]string(nil), p.topics...)
}

// Remaining lists the topics not present in used, in load order.
func (p *Pool) Remaining(used map[string]bool) []string {
	out := make([]string, 0, len(p.topics))
	for _, t := range p.topics {
		if !used[t] {
			out = append(out, t)
		}
	}
	return out
}

// Exhausted reports whether every topic has been used.
func (p *Pool) Exhausted(used map[string]bool) bool {
	for _, t := range p.topics {
		if !used[t] {
			return false
		}
	}
	return true
}

// Pick returns a uniformly random unused topic, or false when none remain.
func (p *Pool) Pick(used map[string]bool, intn func(n int) int) (string, bool) {
	left := p.Remaining(used)
	if len(left) == 0 {
		return "", false
	}
	return left[intn(len(left))], true
}
