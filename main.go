package main

import "github.com/parroyoh/scuff-em/cmd"

func main() {
	cmd.Execute()
}
