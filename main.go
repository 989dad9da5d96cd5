package main

import "github.com/nextlevelbuilder/goclaw-node/cmd"

func main() {
	cmd.Execute()
}
