package main

import (
	"os"

	"github.com/arloliu/blockpress/cmd/blockpress/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
