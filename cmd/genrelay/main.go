package main

import (
	"github.com/mchmarny/genrelay/pkg/cli"
)

func main() {
	cli.Execute()
}
