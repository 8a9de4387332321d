// Package config loads editing-core settings from TOML or YAML files and
// turns them into engine options.
//
// A settings file has three sections:
//
//	[history]
//	max_entries = 1000
//	coalesce_window = "1s"
//
//	[document]
//	line_ending = "lf"
//	tab_width = 4
//
//	[syntax]
//	language = "go"
//	idle_delay = "0s"
//	grammars = "languages.yaml"
//	lexer = ""
//
//	[log]
//	level = "info"
//	format = "text"
//
// The format is chosen by file extension. Several files may be loaded in
// order; later files override the keys they set. Environment variables
// named EDITCORE_<SECTION>_<KEY> override both, so
// EDITCORE_HISTORY_MAX_ENTRIES=50 sets history.max_entries.
package config
