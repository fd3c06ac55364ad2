package main

import "github.com/klytics/xlnt/cmd"

func main() {
	cmd.Execute()
}
