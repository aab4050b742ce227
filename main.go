package main

import (
	"github.com/backupctl/backupctl/cmd"
)

func main() {
	cmd.Execute()
}
