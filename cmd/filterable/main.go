// Command filterable serves filterable admin listings of configured resources.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
