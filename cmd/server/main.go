package main

import "github.com/yourname/snusquit/internal/cli"

func main() {
	cli.Execute()
}
