package main

import "github.com/jhoicas/nfe-api/internal/interfaces/cli"

func main() {
	cli.Execute()
}
