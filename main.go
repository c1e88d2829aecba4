package main

import "github.com/AndrewDahm25/pymake/cmd"

func main() {
	cmd.Execute()
}
