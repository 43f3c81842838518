package main

import "github.com/Yates-Labs/zero2story/cmd"

func main() {
	cmd.Execute()
}
