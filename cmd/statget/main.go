// Command statget queries a produced weapon-data JSON artifact.
//
// Usage:
//
//	statget -file weapon_data.json "Test Rifle"             # whole record
//	statget -file weapon_data.json "Test Rifle" rateOfFire  # one attribute
//	statget -file weapon_data.json -list                    # weapon names
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the query and returns a Unix-style exit code:
//   - 0 success
//   - 1 file unreadable, weapon or attribute not found
//   - 2 usage errors
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("statget", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "weapon_data.json", "weapon-data JSON artifact to query")
	list := fs.Bool("list", false, "print all weapon names and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(stderr, "read artifact: %v\n", err)
		return 1
	}

	var weapons map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &weapons); err != nil {
		fmt.Fprintf(stderr, "parse artifact: %v\n", err)
		return 1
	}

	if *list {
		names := make([]string, 0, len(weapons))
		for name := range weapons {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}

	rest := fs.Args()
	if len(rest) < 1 || len(rest) > 2 {
		fmt.Fprintln(stderr, "usage: statget [-file path] <weapon> [attribute]")
		return 2
	}

	rec, ok := weapons[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "weapon %q not found\n", rest[0])
		return 1
	}

	if len(rest) == 1 {
		b, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "render record: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(b))
		return 0
	}

	v, ok := rec[rest[1]]
	if !ok {
		fmt.Fprintf(stderr, "attribute %q not found on %q\n", rest[1], rest[0])
		return 1
	}
	fmt.Fprintln(stdout, string(v))
	return 0
}
