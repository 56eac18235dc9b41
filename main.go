package main

import (
	"os"

	"meramarket/commands"
)

func main() {
	os.Exit(commands.Execute())
}
