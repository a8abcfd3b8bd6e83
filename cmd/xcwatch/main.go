package main

import "github.com/xcwatch/xcwatch/cmd/xcwatch/commands"

func main() {
	commands.Execute()
}
