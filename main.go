package main

import "github.com/Yates-Labs/medrag/cmd"

func main() {
	cmd.Execute()
}
