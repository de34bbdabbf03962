package main

import (
	"soundreview/cmd"
)

func main() {
	cmd.Execute()
}
