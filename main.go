package main

import "github.com/nvr-ai/go-busstop/cmd"

func main() {
	cmd.Execute()
}
