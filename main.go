package main

import "github.com/john/gcodetime/cmd"

func main() {
	cmd.Execute()
}
