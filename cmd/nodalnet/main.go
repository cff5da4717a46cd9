package main

import "github.com/mark-henry/mhnodalnetwork/cmd/nodalnet/commands"

func main() {
	commands.Execute()
}
