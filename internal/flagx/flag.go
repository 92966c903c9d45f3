// Package flagx lets several parsers share one command line: each parses
// only the flags it defines and ignores the rest, so the JSON config
// locator and the component flag sets can run independently.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps the arguments that belong to the flags named in
// allowedFlags ("-c", "--config", ...), with their values. A value is taken
// from the next argument unless it starts with "-"; "name=value" forms are
// kept whole. Everything else, positionals included, is dropped.
func FilterArgs(args []string, allowedFlags []string) []string {
	takesValue := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		takesValue[f] = true
	}
	return filter(args, takesValue)
}

// ParseOwn parses into fs only the arguments that name one of its flags,
// in either the single- or double-dash form. Boolean flags never consume
// the following argument.
func ParseOwn(fs *flag.FlagSet, args []string) error {
	takesValue := make(map[string]bool)
	fs.VisitAll(func(f *flag.Flag) {
		v := !isBool(f)
		takesValue["-"+f.Name] = v
		takesValue["--"+f.Name] = v
	})
	return fs.Parse(filter(args, takesValue))
}

func filter(args []string, takesValue map[string]bool) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, known := takesValue[name]; known {
				out = append(out, arg)
			}
			continue
		}

		needsValue, known := takesValue[arg]
		if !known {
			continue
		}
		out = append(out, arg)
		if needsValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// JsonConfigFlags returns the config file path given with -c or -config in
// os.Args, or "".
func JsonConfigFlags() string {
	return JsonConfigFlagsFrom(os.Args[1:])
}

// JsonConfigFlagsFrom is JsonConfigFlags over an explicit argument list.
// The last occurrence wins.
func JsonConfigFlagsFrom(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = ParseOwn(fs, args)

	return config
}
