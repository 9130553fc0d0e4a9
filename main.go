package main

import "github.com/collectarr/collectarr/cmd"

func main() {
	cmd.Execute()
}
