package main

import "nfsh/cmd"

func main() {
	cmd.Execute()
}
