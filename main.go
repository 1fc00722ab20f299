package main

import "reposcope/cmd"

func main() {
	cmd.Version = Version
	cmd.Execute()
}
