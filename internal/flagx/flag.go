// Package flagx holds small helpers around spf13/pflag shared by the
// binaries in this module.
package flagx

import (
	"io"

	"github.com/spf13/pflag"
)

// ConfigPath extracts the config file path given via -c or --config from
// args (usually os.Args[1:]).
//
// Every other flag is ignored, so the result can be computed before the
// full flag set of the caller is known. An empty string means no file was
// requested.
func ConfigPath(args []string) string {
	var path string

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.StringVarP(&path, "config", "c", "", "path to config file")

	_ = fs.Parse(args)

	return path
}

// Visited reports whether the named flag was explicitly set on fs.
func Visited(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
