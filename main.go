package main

import "github.com/kasyifana/audit-ai/cmd"

func main() {
	cmd.Execute()
}
