package main

import (
	"github.com/dreamerjackson/statscraper/cmd"
)

func main() {
	cmd.Execute()
}
