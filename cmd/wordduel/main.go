package main

import "github.com/jdunham2/dunhamwordle-sub000/internal/cli"

func main() {
	cli.Execute()
}
