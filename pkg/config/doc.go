// Package config loads and validates client configuration from YAML or JSON
// files and turns it into a ready-to-use client.
//
// The format is auto-detected from the file extension: .yaml/.yml parse as
// YAML, everything else as JSON.
package config
