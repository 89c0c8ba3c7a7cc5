package main

import "airbnb-reconciler/commands"

func main() {
	commands.Execute()
}
