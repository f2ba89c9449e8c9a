package main

import "panomirror/cmd"

func main() {
	cmd.Execute()
}
