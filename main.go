package main

import "activation/cmd"

func main() {
	cmd.Execute()
}
