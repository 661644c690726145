// Package configs holds the configuration templates written by
// `docfinder config init`.
//
// The templates are embedded at build time so binary installs carry them.
// Values left uncommented match the built-in defaults; everything else is
// an example to edit.
package configs

import _ "embed"

// FolderConfigTemplate is written to .docfinder.yaml in a document folder.
//
//go:embed folder-config.example.yaml
var FolderConfigTemplate string

// UserConfigTemplate is written to ~/.config/docfinder/config.yaml and
// applies to every folder on this machine.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
