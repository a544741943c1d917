package main

import "github.com/maher92-collab/securescan-pro/cmd"

func main() {
	cmd.Execute()
}
