package main

import (
	"github.com/foomo/barctl/cmd"
)

func main() {
	cmd.Execute()
}
