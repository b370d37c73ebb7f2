package main

import "frame-archiver/cmd"

func main() {
	cmd.Execute()
}
