package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Script is a deterministic table-driven model runtime. It stands in for
// a real GGUF runtime in tests and dry runs: a base next-token
// distribution plus suffix rules that replace the distribution whenever
// the tail of the forced sequence matches. Rules are checked longest
// suffix first, so more specific context wins.
type Script struct {
	ContextLimit int                `yaml:"context_limit"`
	Base         map[string]float64 `yaml:"base"`
	Rules        []ScriptRule       `yaml:"rules"`

	fingerprint string
	vocab       map[Token]struct{}
}

// ScriptRule swaps in Next when the forced sequence ends with Suffix.
type ScriptRule struct {
	Suffix []string           `yaml:"suffix"`
	Next   map[string]float64 `yaml:"next"`
}

// ScriptLoader loads Script model files.
type ScriptLoader struct{}

// Load parses a YAML script file, normalizes all distributions, and
// returns a fresh State. The fingerprint is the sha256 of the file
// contents, so identical files load identically.
func (ScriptLoader) Load(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load script model: %w", err)
	}
	var sc Script
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse script model %s: %w", path, err)
	}
	if len(sc.Base) == 0 {
		return nil, ErrEmptyScript
	}
	if sc.ContextLimit <= 0 {
		sc.ContextLimit = 64
	}

	sum := sha256.Sum256(raw)
	sc.fingerprint = hex.EncodeToString(sum[:])

	sc.vocab = make(map[Token]struct{})
	addVocab := func(m map[string]float64) {
		for t := range m {
			sc.vocab[Token(t)] = struct{}{}
		}
	}
	addVocab(sc.Base)
	for i, r := range sc.Rules {
		if len(r.Next) == 0 {
			return nil, fmt.Errorf("script model %s: rule %d has empty next distribution", path, i)
		}
		addVocab(r.Next)
	}

	// Longest suffix first; ties keep file order (stable sort).
	sort.SliceStable(sc.Rules, func(i, j int) bool {
		return len(sc.Rules[i].Suffix) > len(sc.Rules[j].Suffix)
	})

	return &scriptState{script: &sc}, nil
}

type scriptState struct {
	script *Script
	seq    []Token
}

func (s *scriptState) NextTokenDistribution() (Distribution, error) {
	next := s.script.Base
	for _, r := range s.script.Rules {
		if s.hasSuffix(r.Suffix) {
			next = r.Next
			break
		}
	}
	return normalize(next)
}

func (s *scriptState) ForceAppend(tok Token) error {
	if len(s.seq) >= s.script.ContextLimit {
		return fmt.Errorf("%w: %w at position %d", ErrTokenRejected, ErrContextFull, len(s.seq))
	}
	if _, ok := s.script.vocab[tok]; !ok {
		return fmt.Errorf("%w: %q not in vocabulary", ErrTokenRejected, tok)
	}
	s.seq = append(s.seq, tok)
	return nil
}

func (s *scriptState) Pos() int { return len(s.seq) }

func (s *scriptState) Fingerprint() string { return s.script.fingerprint }

func (s *scriptState) hasSuffix(suffix []string) bool {
	if len(suffix) == 0 || len(suffix) > len(s.seq) {
		return false
	}
	off := len(s.seq) - len(suffix)
	for i, t := range suffix {
		if s.seq[off+i] != Token(t) {
			return false
		}
	}
	return true
}

func normalize(m map[string]float64) (Distribution, error) {
	var sum float64
	for _, p := range m {
		if p < 0 {
			return nil, fmt.Errorf("model: negative mass %g in script distribution", p)
		}
		sum += p
	}
	if sum <= 0 {
		return nil, fmt.Errorf("model: script distribution has zero total mass")
	}
	d := make(Distribution, len(m))
	for t, p := range m {
		d[Token(t)] = p / sum
	}
	return d, nil
}
