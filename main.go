package main

import "vendhub-backend/cmd"

func main() {
	cmd.Execute()
}
