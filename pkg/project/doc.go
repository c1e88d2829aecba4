// Package project contains the model of a maintained Python project tree:
// the pymake.yaml configuration and the filesystem operations (source
// discovery, bytecode cleanup) the built-in tasks are based on.
package project
