package git

import "time"

// Status is the working-tree status reported by `git status --porcelain=v2`.
type Status struct {
	// Branch is the checked out branch, or "(detached)" when HEAD is detached.
	Branch string `json:"branch"`
	// OID is the commit HEAD points at; "(initial)" before the first commit.
	OID      string       `json:"oid"`
	Upstream string       `json:"upstream,omitempty"`
	Ahead    int          `json:"ahead"`
	Behind   int          `json:"behind"`
	Files    []FileStatus `json:"files"`
}

// HasUpstream reports whether the branch tracks a remote branch.
func (s Status) HasUpstream() bool {
	return s.Upstream != ""
}

// Detached reports whether HEAD is detached.
func (s Status) Detached() bool {
	return s.Branch == detachedHead
}

// IsDirty reports whether there is anything to stage or commit.
func (s Status) IsDirty() bool {
	return len(s.Files) > 0
}

// Staged returns files with changes in the index.
func (s Status) Staged() []FileStatus {
	var out []FileStatus
	for _, f := range s.Files {
		if f.IsStaged() {
			out = append(out, f)
		}
	}
	return out
}

// Unstaged returns files with working tree changes, untracked and conflicted files.
func (s Status) Unstaged() []FileStatus {
	var out []FileStatus
	for _, f := range s.Files {
		if f.IsUnstaged() {
			out = append(out, f)
		}
	}
	return out
}

// FileStatus is one changed path.
type FileStatus struct {
	Path string `json:"path"`
	// OrigPath is set for renames and copies.
	OrigPath string `json:"origPath,omitempty"`
	// Index and Worktree hold the porcelain XY codes; '.' means unchanged.
	Index      byte `json:"index"`
	Worktree   byte `json:"worktree"`
	Untracked  bool `json:"untracked,omitempty"`
	Conflicted bool `json:"conflicted,omitempty"`
}

// IsStaged reports whether the index differs from HEAD for this path.
func (f FileStatus) IsStaged() bool {
	return !f.Untracked && !f.Conflicted && f.Index != '.' && f.Index != 0
}

// IsUnstaged reports whether the working tree differs from the index.
func (f FileStatus) IsUnstaged() bool {
	return f.Untracked || f.Conflicted || (f.Worktree != '.' && f.Worktree != 0)
}

// Code renders the two-letter short status code, e.g. "M ", "??", "UU".
func (f FileStatus) Code() string {
	switch {
	case f.Untracked:
		return "??"
	case f.Conflicted:
		return "UU"
	}
	return string([]byte{dot(f.Index), dot(f.Worktree)})
}

func dot(b byte) byte {
	if b == '.' || b == 0 {
		return ' '
	}
	return b
}

// Branch is a local or remote-tracking branch.
type Branch struct {
	Name    string `json:"name"`
	Ref     string `json:"ref"`
	Hash    string `json:"hash"`
	Subject string `json:"subject"`
	// Upstream and the track counts are only set for local branches.
	Upstream     string    `json:"upstream,omitempty"`
	Ahead        int       `json:"ahead,omitempty"`
	Behind       int       `json:"behind,omitempty"`
	UpstreamGone bool      `json:"upstreamGone,omitempty"`
	Current      bool      `json:"current,omitempty"`
	Remote       string    `json:"remote,omitempty"`
	CommitDate   time.Time `json:"commitDate"`
}

// Commit is one entry of the commit history.
type Commit struct {
	Hash        string    `json:"hash"`
	ShortHash   string    `json:"shortHash"`
	Parents     []string  `json:"parents,omitempty"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	Date        time.Time `json:"date"`
	Refs        []string  `json:"refs,omitempty"`
	Subject     string    `json:"subject"`
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// ReflogEntry is one entry of the HEAD reflog.
type ReflogEntry struct {
	Hash      string    `json:"hash"`
	ShortHash string    `json:"shortHash"`
	Selector  string    `json:"selector"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
}

// Stash is one entry of the stash list.
type Stash struct {
	Index   int       `json:"index"`
	Ref     string    `json:"ref"`
	Hash    string    `json:"hash"`
	Branch  string    `json:"branch,omitempty"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// Tag is a lightweight or annotated tag.
type Tag struct {
	Name string `json:"name"`
	// Hash is the commit the tag points at, peeled for annotated tags.
	Hash      string    `json:"hash"`
	Annotated bool      `json:"annotated"`
	Subject   string    `json:"subject"`
	Date      time.Time `json:"date"`
}
