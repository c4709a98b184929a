package main

import "github.com/sw33tLie/rulewatch/cmd"

func main() {
	cmd.Execute()
}
