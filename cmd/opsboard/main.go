// # cmd/opsboard/main.go
package main

import (
	"os"

	"opsboard/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
