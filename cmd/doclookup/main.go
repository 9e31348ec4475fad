package main

import "doclookup/internal/cli"

func main() {
	cli.Execute()
}
