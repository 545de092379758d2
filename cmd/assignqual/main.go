package main

import "mturk-tools/internal/commands"

func main() {
	commands.Main("assignqual", commands.AssignQual)
}
