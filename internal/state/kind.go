package state

import (
	"fmt"
	"math/bits"
	"strings"
)

// Kind identifies one independently fetchable data collection.
type Kind uint8

const (
	Status Kind = iota
	LocalBranches
	RemoteBranches
	Commits
	Reflog
	Stashes
	Tags

	numKinds
)

var kindNames = [numKinds]string{
	Status:         "status",
	LocalBranches:  "local-branches",
	RemoteBranches: "remote-branches",
	Commits:        "commits",
	Reflog:         "reflog",
	Stashes:        "stashes",
	Tags:           "tags",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the seven known kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// ParseKind accepts the String form of a kind, case-insensitively. Underscores
// and the short aliases "branches", "remotes" and "stash" are accepted too.
func ParseKind(s string) (Kind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	switch name {
	case "branches", "local":
		return LocalBranches, nil
	case "remotes", "remote":
		return RemoteBranches, nil
	case "stash":
		return Stashes, nil
	case "log":
		return Commits, nil
	}
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// KindSet is a set of kinds. The zero value is empty.
type KindSet uint8

// All is the set of every kind.
const All KindSet = 1<<numKinds - 1

// NewKindSet builds a set from kinds, ignoring invalid ones.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.Add(k)
	}
	return s
}

func (s KindSet) Add(k Kind) KindSet {
	if !k.Valid() {
		return s
	}
	return s | 1<<k
}

func (s KindSet) Remove(k Kind) KindSet {
	return s &^ (1 << k)
}

func (s KindSet) Has(k Kind) bool {
	return k.Valid() && s&(1<<k) != 0
}

func (s KindSet) Union(o KindSet) KindSet     { return s | o }
func (s KindSet) Intersect(o KindSet) KindSet { return s & o }
func (s KindSet) Without(o KindSet) KindSet   { return s &^ o }

func (s KindSet) Empty() bool { return s&All == 0 }

func (s KindSet) Len() int { return bits.OnesCount8(uint8(s & All)) }

// Kinds returns the members in declaration order.
func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	if s&All == All {
		return "all"
	}
	if s.Empty() {
		return "none"
	}
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ",")
}

// Strings returns member names, convenient for structured log fields.
func (s KindSet) Strings() []string {
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return names
}

// ParseKindSet parses names such as "status,tags". "all" or an empty list
// yields All.
func ParseKindSet(names ...string) (KindSet, error) {
	var s KindSet
	for _, raw := range names {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				s = s.Union(All)
				continue
			}
			k, err := ParseKind(part)
			if err != nil {
				return 0, err
			}
			s = s.Add(k)
		}
	}
	if s.Empty() {
		return All, nil
	}
	return s, nil
}
