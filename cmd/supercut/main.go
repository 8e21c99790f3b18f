package main

import "github.com/forPelevin/supercut/internal/cli"

func main() {
	cli.Main()
}
