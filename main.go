package main

import "github.com/user/vulnscan-adk/cmd"

func main() {
	cmd.Execute()
}
