package main

import "wakeup-checker/cmd"

func main() {
	cmd.Execute()
}
