package main

import "github.com/viktsys/stockfolio/cmd"

func main() {
	cmd.Execute()
}
