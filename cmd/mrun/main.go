package main

import "github.com/ratelab/ratekit/cmd/mrun/cmd"

func main() {
	cmd.Execute()
}
