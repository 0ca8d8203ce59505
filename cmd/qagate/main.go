// cmd/qagate/main.go
package main

import (
	cmd "github.com/mwiater/qagate/internal/cli"
)

// main starts the qagate CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
