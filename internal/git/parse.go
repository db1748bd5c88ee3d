package git

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	detachedHead = "(detached)"

	fieldSep  = "\x00"
	recordSep = "\x1e"
)

// parseStatus parses `git status --porcelain=v2 --branch -z` output.
func parseStatus(output string) (Status, error) {
	var status Status
	entries := strings.Split(output, fieldSep)

	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if entry == "" {
			continue
		}

		if strings.HasPrefix(entry, "# ") {
			parseStatusHeader(&status, entry)
			continue
		}

		switch entry[0] {
		case '1':
			// 1 XY sub mH mI mW hH hI path
			parts := strings.SplitN(entry, " ", 9)
			if len(parts) < 9 || len(parts[1]) < 2 {
				return Status{}, fmt.Errorf("malformed status entry %q", entry)
			}
			status.Files = append(status.Files, FileStatus{
				Path:     parts[8],
				Index:    parts[1][0],
				Worktree: parts[1][1],
			})
		case '2':
			// 2 XY sub mH mI mW hH hI Xscore path, followed by the original path
			parts := strings.SplitN(entry, " ", 10)
			if len(parts) < 10 || len(parts[1]) < 2 {
				return Status{}, fmt.Errorf("malformed rename entry %q", entry)
			}
			file := FileStatus{
				Path:     parts[9],
				Index:    parts[1][0],
				Worktree: parts[1][1],
			}
			if i+1 < len(entries) {
				i++
				file.OrigPath = entries[i]
			}
			status.Files = append(status.Files, file)
		case 'u':
			// u XY sub m1 m2 m3 mW h1 h2 h3 path
			parts := strings.SplitN(entry, " ", 11)
			if len(parts) < 11 || len(parts[1]) < 2 {
				return Status{}, fmt.Errorf("malformed unmerged entry %q", entry)
			}
			status.Files = append(status.Files, FileStatus{
				Path:       parts[10],
				Index:      parts[1][0],
				Worktree:   parts[1][1],
				Conflicted: true,
			})
		case '?':
			status.Files = append(status.Files, FileStatus{
				Path:      strings.TrimPrefix(entry, "? "),
				Untracked: true,
			})
		case '!':
			// ignored files are never requested, but tolerate them
		default:
			return Status{}, fmt.Errorf("unknown status entry %q", entry)
		}
	}
	return status, nil
}

func parseStatusHeader(status *Status, line string) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return
	}
	switch parts[1] {
	case "branch.oid":
		status.OID = parts[2]
	case "branch.head":
		status.Branch = parts[2]
	case "branch.upstream":
		status.Upstream = parts[2]
	case "branch.ab":
		status.Ahead, _ = strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
		if len(parts) > 3 {
			status.Behind, _ = strconv.Atoi(strings.TrimPrefix(parts[3], "-"))
		}
	}
}

// branchFormat is the for-each-ref format consumed by parseBranches.
var branchFormat = strings.Join([]string{
	"%(HEAD)",
	"%(refname)",
	"%(refname:short)",
	"%(objectname)",
	"%(upstream:short)",
	"%(upstream:track)",
	"%(committerdate:unix)",
	"%(contents:subject)",
}, "%00")

func parseBranches(output string, remote bool) ([]Branch, error) {
	var branches []Branch
	for _, line := range splitLines(output) {
		fields := strings.Split(line, fieldSep)
		if len(fields) != 8 {
			return nil, fmt.Errorf("malformed branch line %q", line)
		}
		ref := fields[1]
		// refs/remotes/<remote>/HEAD is a symbolic pointer, not a branch
		if remote && strings.HasSuffix(ref, "/HEAD") {
			continue
		}
		b := Branch{
			Current:    fields[0] == "*",
			Ref:        ref,
			Name:       fields[2],
			Hash:       fields[3],
			Upstream:   fields[4],
			CommitDate: parseUnix(fields[6]),
			Subject:    fields[7],
		}
		b.Ahead, b.Behind, b.UpstreamGone = parseTrack(fields[5])
		if remote {
			b.Current = false
			b.Remote, _, _ = strings.Cut(strings.TrimPrefix(ref, "refs/remotes/"), "/")
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// parseTrack parses %(upstream:track), e.g. "[ahead 1, behind 2]" or "[gone]".
func parseTrack(track string) (ahead, behind int, gone bool) {
	track = strings.Trim(strings.TrimSpace(track), "[]")
	if track == "" {
		return 0, 0, false
	}
	if track == "gone" {
		return 0, 0, true
	}
	for _, part := range strings.Split(track, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), " ")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		switch name {
		case "ahead":
			ahead = n
		case "behind":
			behind = n
		}
	}
	return ahead, behind, false
}

const commitFormat = "%H%x00%h%x00%P%x00%an%x00%ae%x00%at%x00%D%x00%s%x1e"

func parseCommits(output string) ([]Commit, error) {
	var commits []Commit
	for _, record := range splitRecords(output) {
		fields := strings.Split(record, fieldSep)
		if len(fields) != 8 {
			return nil, fmt.Errorf("malformed commit record %q", record)
		}
		c := Commit{
			Hash:        fields[0],
			ShortHash:   fields[1],
			Parents:     strings.Fields(fields[2]),
			Author:      fields[3],
			AuthorEmail: fields[4],
			Date:        parseUnix(fields[5]),
			Subject:     fields[7],
		}
		if refs := strings.TrimSpace(fields[6]); refs != "" {
			for _, r := range strings.Split(refs, ",") {
				c.Refs = append(c.Refs, strings.TrimSpace(r))
			}
		}
		commits = append(commits, c)
	}
	return commits, nil
}

const reflogFormat = "%H%x00%h%x00%gd%x00%gs%x00%ct%x1e"

func parseReflog(output string) ([]ReflogEntry, error) {
	var entries []ReflogEntry
	for _, record := range splitRecords(output) {
		fields := strings.Split(record, fieldSep)
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed reflog record %q", record)
		}
		e := ReflogEntry{
			Hash:      fields[0],
			ShortHash: fields[1],
			Selector:  fields[2],
			Date:      parseUnix(fields[4]),
		}
		// "%gs" is "<action>: <message>", e.g. "commit (amend): fix typo"
		if action, msg, ok := strings.Cut(fields[3], ": "); ok {
			e.Action, e.Message = action, msg
		} else {
			e.Message = fields[3]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

const stashFormat = "%gd%x00%H%x00%gs%x00%ct%x1e"

func parseStashes(output string) ([]Stash, error) {
	var stashes []Stash
	for _, record := range splitRecords(output) {
		fields := strings.Split(record, fieldSep)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed stash record %q", record)
		}
		s := Stash{
			Ref:     fields[0],
			Hash:    fields[1],
			Message: fields[2],
			Date:    parseUnix(fields[3]),
		}
		s.Index = stashIndex(s.Ref)
		// "WIP on main: abc123 subject" or "On main: message"
		if rest, ok := strings.CutPrefix(s.Message, "WIP on "); ok {
			s.Branch, _, _ = strings.Cut(rest, ":")
		} else if rest, ok := strings.CutPrefix(s.Message, "On "); ok {
			s.Branch, _, _ = strings.Cut(rest, ":")
		}
		stashes = append(stashes, s)
	}
	return stashes, nil
}

func stashIndex(ref string) int {
	start := strings.Index(ref, "{")
	end := strings.LastIndex(ref, "}")
	if start < 0 || end <= start {
		return -1
	}
	n, err := strconv.Atoi(ref[start+1 : end])
	if err != nil {
		return -1
	}
	return n
}

var tagFormat = strings.Join([]string{
	"%(refname:short)",
	"%(objectname)",
	"%(objecttype)",
	"%(*objectname)",
	"%(creatordate:unix)",
	"%(contents:subject)",
}, "%00")

func parseTags(output string) ([]Tag, error) {
	var tags []Tag
	for _, line := range splitLines(output) {
		fields := strings.Split(line, fieldSep)
		if len(fields) != 6 {
			return nil, fmt.Errorf("malformed tag line %q", line)
		}
		t := Tag{
			Name:      fields[0],
			Hash:      fields[1],
			Annotated: fields[2] == "tag",
			Date:      parseUnix(fields[4]),
			Subject:   fields[5],
		}
		if t.Annotated && fields[3] != "" {
			t.Hash = fields[3]
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func splitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func splitRecords(output string) []string {
	var records []string
	for _, record := range strings.Split(output, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}

func parseUnix(value string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
