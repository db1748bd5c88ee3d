// Package config loads slayergit's TOML configuration.
//
// Load reads ~/.config/slayergit/config.toml unless another path is given.
// A missing file is not an error; every key is optional and empty values fall
// back to their defaults:
//
//	repo_path            = "."        # any path inside the work tree
//	git_binary           = "git"
//	fetch_timeout        = "10s"      # per kind; "0" waits forever
//	max_parallel_fetches = 7          # 1..7
//	commit_limit         = 200
//	reflog_limit         = 100
//	poll_interval        = "0"        # periodic full refresh; "0" disables
//	watch                = true       # refresh on changes under .git
//	watch_debounce       = "250ms"
//	log_level            = "info"     # SLAYERGIT_LOG_LEVEL overrides
//	log_file             = "~/.local/state/slayergit/slayergit.log"
//	log_format           = "text"     # or "json"
//	log_to_stderr        = "auto"     # auto, always, never
//
// Paths accept a leading ~ and are made absolute. Out-of-range values fail
// with a CONFIG_INVALID error; malformed TOML fails with "parse config".
package config
