package main

import "github.com/avoronin/unijar/cmd/unijar/cmd"

func main() {
	cmd.Execute()
}
