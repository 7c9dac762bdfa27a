package main

import "github.com/zjrosen/gitpane/cmd"

func main() {
	cmd.Execute()
}
