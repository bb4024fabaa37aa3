package main

import "github.com/josephlewis42/psh/cmd"

func main() {
	cmd.Execute()
}
