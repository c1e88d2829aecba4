// Package tasks implements a minimal, portable task runner: the built-in
// maintenance tasks are constructed from the project configuration, extra
// tasks come from a Starlark script and all shell commands run on the
// mvdan.cc/sh runtime so no external shell or make is required.
package tasks
