package main

import "github.com/aouyang1/go-powerpulse/internal/cli"

func main() {
	cli.Execute()
}
