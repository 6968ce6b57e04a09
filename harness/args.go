package harness

import (
	"strings"
)

// argOptions carries the host-runner argument conventions this harness
// honors. Zero values mean "not specified".
type argOptions struct {
	run         string
	listPattern string
	verbose     bool
	list        bool
}

// parseArgs extracts supported arguments from an argv-style slice:
// -run/-test.run (case name regexp), -v/-test.v (verbose), and
// -list/-test.list (print matching case names and exit). Values may be
// attached (-run=foo) or follow as the next argument (-run foo), with
// single or double dashes.
//
// Everything unrecognized is deliberately ignored: when the binary runs
// under `go test` or another wrapper that owns the argument surface, the
// wrapper's remaining flags must pass through without tripping an
// unknown-flag error.
func parseArgs(args []string) (o argOptions) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) < 2 || arg[0] != '-' {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		var value string
		var hasValue bool
		if j := strings.IndexByte(name, '='); j >= 0 {
			name, value, hasValue = name[:j], name[j+1:], true
		}
		name = strings.TrimPrefix(name, "test.")
		// Plain-form flags may take the next argument as their value.
		takeNext := func() {
			if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
				hasValue = true
			}
		}
		switch name {
		case "run":
			takeNext()
			o.run = value
		case "v":
			// `go test -json` spells this -test.v=test2json; anything
			// but an explicit false enables verbose output.
			o.verbose = value != "false"
		case "list":
			takeNext()
			o.list = true
			o.listPattern = value
		}
	}
	return o
}
