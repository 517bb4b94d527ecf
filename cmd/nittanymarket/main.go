package main

import "nittanymarket/cmd/nittanymarket/commands"

func main() {
	commands.Execute()
}
