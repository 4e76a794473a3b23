package main

import "msgstudio/internal/cli"

func main() {
	cli.Execute()
}
