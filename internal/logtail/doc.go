// Package logtail reads the tail of slayergit's own log file for the in-app
// Log tab.
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded by the
// number of lines shown rather than the size of the file. Parse splits lines
// written by the text formatter into timestamp, level, component, message and
// trailing fields so the UI can style each part.
//
//	lines, err := logtail.Read(cfg.Log.File, 400)
//	for _, raw := range lines {
//		l := logtail.Parse(raw)
//		render(l.Level, l.Component, l.Message)
//	}
package logtail
