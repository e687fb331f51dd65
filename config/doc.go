// Package config supplies the tunable parameters of the analyzer: capture
// interface and filter, media classification rules, metric window sizes,
// and queue/buffer bounds.
//
// All parameters have working defaults; a YAML file can override any subset
// of them. Load applies the file on top of Default, so an empty file is
// equivalent to no file at all.
package config
