package main

import "github.com/fakeyudi/freeterm/cmd"

func main() {
	cmd.Execute()
}
