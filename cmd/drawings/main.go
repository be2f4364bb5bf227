package main

import (
	"os"

	"github.com/hashicorp-forge/onshape-drawings/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
