// Command conformgate runs the wiring conformance checks over a source
// tree and exits non-zero when any violation is found. It is meant to
// run in CI next to the test suite.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ayusman/sparsh/internal/conformance"
)

func main() {
	root := flag.String("root", ".", "source tree to check")
	manifest := flag.String("manifest", "wiring.json", "wiring manifest, relative to the root")
	deferredPath := flag.String("deferred", "deferred.json", "deferred-plugins manifest, relative to the root")
	flag.Parse()

	gate := conformance.New(*root)
	gate.ManifestPath = *manifest
	gate.DeferredPath = *deferredPath

	violations, err := gate.Run()
	if err != nil {
		log.Fatalf("conformgate: %v", err)
	}

	if len(violations) == 0 {
		fmt.Println("conformgate: ok")
		return
	}
	for _, v := range violations {
		fmt.Fprintln(os.Stderr, v)
	}
	fmt.Fprintf(os.Stderr, "conformgate: %d violation(s)\n", len(violations))
	os.Exit(1)
}
