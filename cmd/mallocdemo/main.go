// SPDX-License-Identifier: Apache-2.0

// Command mallocdemo drives a heap through a fixed allocate/resize scenario
// and prints the resulting addresses and statistics.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
