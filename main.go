package main

import "github.com/connectedcar/edge-vehicle-adapter/cmd"

func main() {
	cmd.Execute()
}
