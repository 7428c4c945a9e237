// ./main.go
package main

import (
	"github.com/xkilldash9x/farescout-cli/cmd"
)

// main is the entry point for the farescout CLI. All command-line parsing,
// configuration, and execution lives in the cmd package.
func main() {
	cmd.Execute()
}
