// Command autoattach watches a process tree and attaches a debugger to every
// descendant started with --debugger or --debugger-port=<n>.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd(defaultDeps()).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
