// ./main.go
package main

import (
	"github.com/xkilldash9x/searchprobe/cmd"
)

// main is the entry point for the searchprobe CLI.
func main() {
	cmd.Execute()
}
