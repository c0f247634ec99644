package main

import "github.com/dormwatch/dormwatch/cmd"

func main() {
	cmd.Execute()
}
