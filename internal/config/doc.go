// Package config provides configuration structures and utilities for docmirror.
// It defines the main configuration options for crawling documentation sites,
// Markdown conversion settings, and output preferences.
package config
