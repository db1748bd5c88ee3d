package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. maxLines
// <= 0 returns the whole file. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Line is one entry written by the text log formatter:
//
//	2025-01-02 15:04:05 [INFO] [refresh] refresh complete cycle=... duration_ms=3
type Line struct {
	Raw       string
	Timestamp string
	Level     string
	Component string
	Message   string
	// Fields is the trailing key=value text, unparsed.
	Fields string
}

// Parse splits a formatted log line into its parts. Lines in another format
// come back with only Raw and Message set.
func Parse(raw string) Line {
	line := Line{Raw: raw, Message: raw}
	rest := raw

	// "2006-01-02 15:04:05 " is 20 bytes.
	if len(rest) >= 20 && rest[4] == '-' && rest[7] == '-' && rest[10] == ' ' && rest[13] == ':' {
		line.Timestamp = rest[:19]
		rest = strings.TrimLeft(rest[19:], " ")
	}

	level, after, ok := bracketed(rest)
	if !ok || !isLevel(level) {
		return line
	}
	line.Level = level
	rest = after

	if comp, after, ok := bracketed(rest); ok {
		line.Component = comp
		rest = after
	}

	msg, fields := splitFields(rest)
	line.Message = msg
	line.Fields = fields
	return line
}

func bracketed(s string) (inner, rest string, ok bool) {
	s = strings.TrimLeft(s, " ")
	if !strings.HasPrefix(s, "[") {
		return "", s, false
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", s, false
	}
	return s[1:end], strings.TrimLeft(s[end+1:], " "), true
}

func isLevel(s string) bool {
	switch s {
	case "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "PANIC":
		return true
	}
	return false
}

// splitFields separates the message from the first " key=" suffix.
func splitFields(s string) (msg, fields string) {
	words := strings.Split(s, " ")
	for i, w := range words {
		if i == 0 {
			continue
		}
		if eq := strings.IndexByte(w, '='); eq > 0 && !strings.ContainsAny(w[:eq], "\"'") {
			return strings.Join(words[:i], " "), strings.Join(words[i:], " ")
		}
	}
	return s, ""
}
