package main

import (
	"fmt"
	"os"

	"completiond/internal/ctl"
)

func main() {
	if err := ctl.BuildRootCmd(ctl.DefaultConfig()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "completionctl:", err)
		os.Exit(1)
	}
}
