package main

import (
	"ftpsched/cmd"
	"os"
)

func main() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}
	cmd.Execute()
}
