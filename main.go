package main

import "github.com/wkalt/tbin/cli/cmd"

func main() {
	cmd.Execute()
}
